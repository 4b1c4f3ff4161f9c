package stripe

import (
	"sync"
	"testing"
)

func TestForIsStable(t *testing.T) {
	l := New(8)
	if l.For("k") != l.For("k") {
		t.Fatalf("same key must map to the same mutex")
	}
	if len(New(0).mus) != defaultStripes {
		t.Fatalf("expected default stripe count")
	}
}

func TestForSerializes(t *testing.T) {
	l := New(4)
	var wg sync.WaitGroup
	n := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mu := l.For("counter")
			mu.Lock()
			n++
			mu.Unlock()
		}()
	}
	wg.Wait()
	if n != 100 {
		t.Fatalf("n=%d", n)
	}
}
