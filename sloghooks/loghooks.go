package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	cacher "github.com/cerberix-net/util-nuget-cacher"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	DecodeFailedEvery  uint64
	ComputeSharedEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	decodeCtr atomic.Uint64
	sharedCtr atomic.Uint64
}

var _ cacher.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) DecodeFailed(region, key string, err error) {
	if h.l == nil || !sample(h.opts.DecodeFailedEvery, &h.decodeCtr) {
		return
	}
	h.l.Warn("cacher.decode_failed",
		"region", region,
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) ComputeShared(region, key string) {
	if h.l == nil || !sample(h.opts.ComputeSharedEvery, &h.sharedCtr) {
		return
	}
	h.l.Debug("cacher.compute_shared",
		"region", region,
		"key", h.redact(key))
}

func (h *Hooks) ComputeDiscarded(region, key string) {
	if h.l == nil {
		return
	}
	h.l.Info("cacher.compute_discarded",
		"region", region,
		"key", h.redact(key))
}

func (h *Hooks) ClearFailed(region string, failed, total int, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("cacher.clear_failed",
		"region", region,
		"failed", failed,
		"total", total,
		"err", err)
}
