// Package camelot models the Camelot wheel used for harmonic mixing.
//
// The wheel has 24 positions: numbers 1 through 12 paired with mode A
// (minor) or B (major). Two positions mix cleanly when they are the same,
// relative major/minor of each other, or a perfect fifth apart (adjacent
// numbers in the same mode). The Graph exposes hop distances and shortest
// paths over that adjacency, which the compatibility scorer and playlist
// generator consume.
//
// Keys parse from Camelot labels ("8A") and from standard musical notation
// ("Am", "F#m", "Db"). The graph is immutable after construction and safe
// for concurrent readers.
package camelot
