// Package catalog persists tracks, feature vectors, the compatibility
// cache, cluster models, and playlists in SQLite.
//
// All mutations funnel through one writer goroutine fed by two bounded
// lanes, interactive and batch. The writer drains the interactive lane
// before touching the batch lane, applies each mutation in its own
// transaction, and therefore gives every mutation a total order without
// table-level locking. Reads never pass through the writer; with WAL
// enabled they run concurrently against a consistent snapshot.
//
// Producers block when their lane is full, which backpressures analysis
// workers instead of dropping writes. TrySubmit-style paths return
// ErrQueueSaturated for callers that cannot block.
package catalog
