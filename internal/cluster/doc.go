// Package cluster groups analyzed tracks into genre-like clusters by running
// k-means over their feature vectors.
//
// Fitting is an explicit batch operation over the whole analyzed population;
// incremental per-import updates would let centroids drift apart from the
// assignments. A fit is deterministic for a fixed seed, which keeps re-fits
// reproducible in tests and lets the catalog swap the model wholesale.
package cluster
