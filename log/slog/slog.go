//go:build go1.21

package slog

import (
	"context"
	stdslog "log/slog"
	"sort"

	cacher "github.com/cerberix-net/util-nuget-cacher"
)

var _ cacher.Logger = Logger{}

// Logger forwards to L. Ctx is handed to L's handler with every record; nil
// means context.Background.
type Logger struct {
	L   *stdslog.Logger
	Ctx context.Context
}

func (s Logger) Debug(msg string, f cacher.Fields) { s.log(stdslog.LevelDebug, msg, f) }
func (s Logger) Info(msg string, f cacher.Fields)  { s.log(stdslog.LevelInfo, msg, f) }
func (s Logger) Warn(msg string, f cacher.Fields)  { s.log(stdslog.LevelWarn, msg, f) }
func (s Logger) Error(msg string, f cacher.Fields) { s.log(stdslog.LevelError, msg, f) }

func (s Logger) log(level stdslog.Level, msg string, f cacher.Fields) {
	ctx := s.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if !s.L.Enabled(ctx, level) {
		return
	}
	s.L.LogAttrs(ctx, level, msg, attrs(f)...)
}

// attrs renders f with keys sorted; errors are flattened to their message so
// every handler prints them the same way.
func attrs(f cacher.Fields) []stdslog.Attr {
	if len(f) == 0 {
		return nil
	}
	names := make([]string, 0, len(f))
	for k := range f {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make([]stdslog.Attr, 0, len(f))
	for _, k := range names {
		switch v := f[k].(type) {
		case error:
			out = append(out, stdslog.String(k, v.Error()))
		default:
			out = append(out, stdslog.Any(k, v))
		}
	}
	return out
}
