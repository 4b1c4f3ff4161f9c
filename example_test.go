package cacher_test

import (
	"context"
	"fmt"
	"sort"
	"time"

	cacher "github.com/cerberix-net/util-nuget-cacher"
	"github.com/cerberix-net/util-nuget-cacher/store/memory"
)

type Package struct {
	ID      string
	Version string
}

func Example() {
	ctx := context.Background()
	st := memory.New(memory.Config{})
	defer st.Close(ctx)

	pkgs, _ := cacher.New[Package](cacher.Options[Package]{Store: st, Region: "packages"})

	calls := 0
	load := func(context.Context) (Package, error) {
		calls++
		return Package{ID: "Newtonsoft.Json", Version: "13.0.3"}, nil
	}

	p, _ := pkgs.GetOrSet(ctx, "newtonsoft.json", cacher.Sliding(10*time.Minute), load)
	p, _ = pkgs.GetOrSet(ctx, "newtonsoft.json", cacher.Sliding(10*time.Minute), load)
	fmt.Println(p.ID, p.Version, calls)

	_, ok, _ := pkgs.Get(ctx, "serilog")
	fmt.Println("serilog cached:", ok)

	// Output:
	// Newtonsoft.Json 13.0.3 1
	// serilog cached: false
}

func ExampleCache_Clear() {
	ctx := context.Background()
	st := memory.New(memory.Config{})
	defer st.Close(ctx)

	a, _ := cacher.New[string](cacher.Options[string]{Store: st, Region: "feeds"})
	b, _ := cacher.New[string](cacher.Options[string]{Store: st, Region: "Feeds"})

	_, _ = a.Set(ctx, "nuget.org", cacher.Absolute(time.Hour), "https://api.nuget.org/v3/index.json")
	_, _ = a.Set(ctx, "internal", cacher.Absolute(time.Hour), "https://nuget.example.com/v3/index.json")
	_, _ = b.Set(ctx, "nuget.org", cacher.Absolute(time.Hour), "mirror")

	_ = a.Clear(ctx)

	ka, _ := a.GetKeys(ctx)
	kb, _ := b.GetKeys(ctx)
	sort.Strings(kb)
	fmt.Println(len(ka), kb)

	// Output:
	// 0 [nuget.org]
}
