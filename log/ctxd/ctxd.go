// Package ctxd adapts a github.com/bool64/ctxd logger to cacher.Logger.
package ctxd

import (
	"context"
	"sort"

	"github.com/bool64/ctxd"

	cacher "github.com/cerberix-net/util-nuget-cacher"
)

var _ cacher.Logger = Logger{}

// Logger forwards to L. Ctx supplies the context for every entry; nil means
// context.Background.
type Logger struct {
	L   ctxd.Logger
	Ctx context.Context
}

func (l Logger) ctx() context.Context {
	if l.Ctx == nil {
		return context.Background()
	}
	return l.Ctx
}

func (l Logger) Debug(msg string, f cacher.Fields) { l.L.Debug(l.ctx(), msg, kv(f)...) }
func (l Logger) Info(msg string, f cacher.Fields)  { l.L.Info(l.ctx(), msg, kv(f)...) }
func (l Logger) Warn(msg string, f cacher.Fields)  { l.L.Warn(l.ctx(), msg, kv(f)...) }
func (l Logger) Error(msg string, f cacher.Fields) { l.L.Error(l.ctx(), msg, kv(f)...) }

// kv flattens f into ctxd's alternating key/value form, keys sorted.
func kv(f cacher.Fields) []interface{} {
	if len(f) == 0 {
		return nil
	}
	names := make([]string, 0, len(f))
	for k := range f {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make([]interface{}, 0, 2*len(f))
	for _, k := range names {
		out = append(out, k, f[k])
	}
	return out
}
