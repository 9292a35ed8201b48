package hamms_test

import (
	"errors"
	"testing"

	"mixtape/internal/camelot"
	"mixtape/internal/hamms"
)

func floatPtr(v float64) *float64 { return &v }

func TestBuildRequiresBPMAndKey(t *testing.T) {
	builder := hamms.NewBuilder(hamms.DefaultGenreFallbacks())

	if _, _, err := builder.Build(hamms.RawFeatures{Key: "8A"}); !errors.Is(err, hamms.ErrIncompleteMetadata) {
		t.Fatalf("missing bpm: got %v, want ErrIncompleteMetadata", err)
	}
	if _, _, err := builder.Build(hamms.RawFeatures{BPM: 128}); !errors.Is(err, hamms.ErrIncompleteMetadata) {
		t.Fatalf("missing key: got %v, want ErrIncompleteMetadata", err)
	}
	if _, _, err := builder.Build(hamms.RawFeatures{BPM: 128, Key: "99Z"}); !errors.Is(err, camelot.ErrUnknownKey) {
		t.Fatalf("bad key: got %v, want ErrUnknownKey", err)
	}
}

func TestBuildComponentsStayInUnitInterval(t *testing.T) {
	builder := hamms.NewBuilder(hamms.DefaultGenreFallbacks())
	cases := []hamms.RawFeatures{
		{BPM: 20, Key: "1A"},
		{BPM: 300, Key: "12B", Energy: floatPtr(10)},
		{BPM: 128, Key: "8A", Genre: "Techno", Energy: floatPtr(0.8)},
		{BPM: 174, Key: "3B", Genre: "Drum & Bass", Danceability: floatPtr(1.5), Valence: floatPtr(-0.2)},
	}
	for _, raw := range cases {
		vector, _, err := builder.Build(raw)
		if err != nil {
			t.Fatalf("Build(%+v) failed: %v", raw, err)
		}
		if !vector.Valid() {
			t.Fatalf("vector outside [0,1]: %v", vector)
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	builder := hamms.NewBuilder(hamms.DefaultGenreFallbacks())
	raw := hamms.RawFeatures{BPM: 126, Key: "Am", Genre: "Deep House", Energy: floatPtr(0.62)}

	first, firstKey, err := builder.Build(raw)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	second, secondKey, err := builder.Build(raw)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if first != second || firstKey != secondKey {
		t.Fatalf("builds differ: %v vs %v", first, second)
	}
	if firstKey.String() != "8A" {
		t.Fatalf("Am should normalize to 8A, got %v", firstKey)
	}
}

func TestBuildNormalizesEnergyScales(t *testing.T) {
	builder := hamms.NewBuilder(hamms.DefaultGenreFallbacks())

	fromUnit, _, err := builder.Build(hamms.RawFeatures{BPM: 128, Key: "8A", Energy: floatPtr(0.7)})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	fromScale, _, err := builder.Build(hamms.RawFeatures{BPM: 128, Key: "8A", Energy: floatPtr(7)})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if fromUnit[hamms.DimEnergy] != fromScale[hamms.DimEnergy] {
		t.Fatalf("energy scales disagree: %f vs %f",
			fromUnit[hamms.DimEnergy], fromScale[hamms.DimEnergy])
	}
}

func TestBuildUsesMeasuredDescriptorsOverFallbacks(t *testing.T) {
	builder := hamms.NewBuilder(hamms.DefaultGenreFallbacks())
	measured := hamms.RawFeatures{
		BPM:              128,
		Key:              "8A",
		Genre:            "Techno",
		RhythmicPattern:  floatPtr(0.42),
		SpectralCentroid: floatPtr(0.31),
		DynamicRange:     floatPtr(0.9),
	}

	vector, _, err := builder.Build(measured)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if vector[hamms.DimRhythmicPattern] != 0.42 {
		t.Fatalf("rhythmic pattern fallback overrode measurement: %f", vector[hamms.DimRhythmicPattern])
	}
	if vector[hamms.DimSpectralCentroid] != 0.31 {
		t.Fatalf("spectral centroid fallback overrode measurement: %f", vector[hamms.DimSpectralCentroid])
	}
	if vector[hamms.DimDynamicRange] != 0.9 {
		t.Fatalf("dynamic range fallback overrode measurement: %f", vector[hamms.DimDynamicRange])
	}
}

func TestDefaultWeightsMatchDimensionOrder(t *testing.T) {
	weights := hamms.DefaultWeights()
	if weights[hamms.DimKey] != 1.4 || weights[hamms.DimBPM] != 1.3 || weights[hamms.DimInstrumentalness] != 0.5 {
		t.Fatalf("unexpected weights: %v", weights)
	}
}
