package logrus

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	cacher "github.com/cerberix-net/util-nuget-cacher"
)

func TestLevelsAndFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := New(base)

	l.Debug("d", cacher.Fields{"region": "r"})
	l.Info("i", nil)
	l.Warn("w", cacher.Fields{"key": "k"})
	l.Error("e", cacher.Fields{"failed": 2})

	entries := hook.AllEntries()
	if len(entries) != 4 {
		t.Fatalf("entries=%d", len(entries))
	}
	want := []logrus.Level{logrus.DebugLevel, logrus.InfoLevel, logrus.WarnLevel, logrus.ErrorLevel}
	for i, e := range entries {
		if e.Level != want[i] {
			t.Fatalf("entry %d level=%v want %v", i, e.Level, want[i])
		}
		if e.Data["component"] != "cacher" {
			t.Fatalf("entry %d missing component field: %v", i, e.Data)
		}
	}
	if entries[0].Data["region"] != "r" || entries[3].Data["failed"] != 2 {
		t.Fatalf("fields not forwarded: %v %v", entries[0].Data, entries[3].Data)
	}
}
