package cacher

// Hooks are lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; the cache calls them inline.
type Hooks interface {
	// A stored payload could not be decoded. The entry is left in place.
	DecodeFailed(region, key string, err error)

	// A GetOrSet computation was shared by concurrent callers on one facade.
	// Called once for every caller that received the shared result.
	ComputeShared(region, key string)

	// A GetOrSet result was computed but another writer stored the key first;
	// the stored value was returned and the computed one discarded.
	ComputeDiscarded(region, key string)

	// Clear could not remove failed of total keys.
	ClearFailed(region string, failed, total int, err error)
}

// NopHooks is the default no-op.
type NopHooks struct{}

func (NopHooks) DecodeFailed(string, string, error)  {}
func (NopHooks) ComputeShared(string, string)        {}
func (NopHooks) ComputeDiscarded(string, string)     {}
func (NopHooks) ClearFailed(string, int, int, error) {}
