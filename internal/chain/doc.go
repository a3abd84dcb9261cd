// Package chain implements the sync chain actor: the state shared by the
// devices of one user and the rules that keep it consistent.
//
// # State
//
// Each chain holds a device registry, a read-mark log bounded to
// MaxReadMarks entries (oldest evicted first), and one opaque feeds blob
// replaced under If-Match. Everything is persisted through a storage.Store
// scoped to the chain; the in-memory view is rebuilt lazily on first use.
//
// # Concurrency
//
// A Registry owns one Chain per id and serializes every operation on it:
// Registry.Do holds the chain lock across the callback, including store
// I/O. Different chains proceed independently.
//
//	err := reg.Do(ctx, cid, func(c *chain.Chain) error {
//	    if err := c.Authorize(ctx, deviceID); err != nil {
//	        return err
//	    }
//	    ts, err = c.AppendReadMarks(ctx, marks)
//	    return err
//	})
//
// # Conditional tokens
//
// The feeds token is derived from the client's content hash and is the only
// token used for write conflicts. Device and read-mark tokens are revision
// counters that only serve If-None-Match.
//
// # Garbage collection
//
// Registry.Sweep walks the chain index and wipes every chain that has no
// devices, or whose creation and newest read mark are both older than
// Retention.
package chain
