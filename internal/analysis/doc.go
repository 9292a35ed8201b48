// Package analysis turns raw track descriptors into stored feature vectors
// on a fixed worker pool.
//
// Tasks flow through queued, in-progress, and a terminal completed or
// failed state. Two bounded lanes feed the pool; interactive submissions
// are drained ahead of batch ones. Failed tracks keep no vector and show up
// again on the next library scan, which doubles as the retry path for
// transient extractor trouble beyond the in-task retry budget.
package analysis
