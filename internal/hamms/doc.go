// Package hamms builds the 12-dimensional feature vectors that drive
// similarity scoring, clustering, and playlist generation.
//
// Each analyzed track maps to a Vector whose components all live in [0,1]:
// normalized bpm, key position, energy, danceability, valence, acousticness,
// instrumentalness, rhythmic pattern, spectral centroid, tempo stability,
// harmonic complexity, and dynamic range. A fixed weight per dimension
// expresses how much it matters when comparing tracks; key and bpm dominate.
//
// Optional descriptors that the import pipeline could not measure fall back
// to a genre-derived table. That table is a modeling convenience with no
// acoustic-accuracy guarantee; installations with a real signal-analysis
// front end should supply measured values instead.
package hamms
