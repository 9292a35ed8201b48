package testsupport

import "mixtape/internal/hamms"

// RawTrack is a compact fixture shape for test tracks. Zero-valued optional
// fields are left unset so builder defaults apply.
type RawTrack struct {
	BPM         float64
	Key         string
	DurationSec float64
	Genre       string
	Energy      float64
}

// Features expands the fixture into builder input.
func (r RawTrack) Features() hamms.RawFeatures {
	raw := hamms.RawFeatures{
		BPM:         r.BPM,
		Key:         r.Key,
		DurationSec: r.DurationSec,
		Genre:       r.Genre,
	}
	if r.Energy != 0 {
		energy := r.Energy
		raw.Energy = &energy
	}
	return raw
}
