package analysis

import (
	"context"

	"mixtape/internal/catalog"
	"mixtape/internal/hamms"
)

// Extractor produces raw feature descriptors for a track. Implementations
// may hit external decoders or services, so they honor ctx cancellation and
// deadlines.
type Extractor interface {
	Extract(ctx context.Context, track *catalog.Track) (hamms.RawFeatures, error)
}

// StoredExtractor reads the descriptors already attached to the track at
// import time. It is the default when no richer source is configured.
type StoredExtractor struct{}

// Extract returns the track's stored descriptors.
func (StoredExtractor) Extract(_ context.Context, track *catalog.Track) (hamms.RawFeatures, error) {
	return track.Raw, nil
}
