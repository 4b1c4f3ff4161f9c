// Package cacher implements a region-scoped, in-process cache facade over a
// shared expiring key-value store.
//
// Components:
//   - store.Store: expiring byte store (memory, bigcache, gocache). One instance
//     is created by the application and shared by every facade.
//   - codec.Codec[V]: (de)serializes V <-> []byte. JSON by default.
//   - Cache[V]: the facade. Every facade is bound to one region; regions are
//     isolated from each other even though they share the store.
//
// Policies:
//
//	Absolute(d) - entry expires d after it was written, reads do not extend it
//	Sliding(d)  - entry expires once it has gone d without a successful Get
//
// Region names are trimmed and compared case-sensitively; a blank name means
// the "Default" region. Keys are structured (region, item) pairs, so no region
// or item text can collide with another region's keys.
//
// Usage:
//
//	st := memory.New(memory.Config{})
//	defer st.Close(ctx)
//
//	users, _ := cacher.New[User](cacher.Options[User]{Region: "users", Store: st})
//	u, err := users.GetOrSet(ctx, "u:1", cacher.Sliding(time.Minute), loadUser)
package cacher
