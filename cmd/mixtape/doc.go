// Command mixtape manages a DJ track library: it computes feature vectors,
// rates transitions between tracks, clusters the library, and sequences
// playlists under an energy curve.
package main
