package camelot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Mode distinguishes the minor (A) and major (B) rings of the wheel.
type Mode byte

const (
	ModeMinor Mode = 'A'
	ModeMajor Mode = 'B'
)

// Key is one of the 24 positions on the Camelot wheel.
type Key struct {
	Number int // 1..12
	Mode   Mode
}

// ErrUnknownKey reports a key label that is neither a Camelot code nor a
// recognized standard musical key. Pure components treat this as a caller
// bug and fail fast.
var ErrUnknownKey = errors.New("unknown key")

// standardToCamelot maps conventional key names onto wheel positions.
// Majors land on the B ring, minors on the A ring.
var standardToCamelot = map[string]Key{
	"C": {8, ModeMajor}, "Am": {8, ModeMinor},
	"G": {9, ModeMajor}, "Em": {9, ModeMinor},
	"D": {10, ModeMajor}, "Bm": {10, ModeMinor},
	"A": {11, ModeMajor}, "F#m": {11, ModeMinor},
	"E": {12, ModeMajor}, "C#m": {12, ModeMinor},
	"B": {1, ModeMajor}, "G#m": {1, ModeMinor},
	"Gb": {2, ModeMajor}, "F#": {2, ModeMajor}, "Ebm": {2, ModeMinor}, "D#m": {2, ModeMinor},
	"Db": {3, ModeMajor}, "C#": {3, ModeMajor}, "Bbm": {3, ModeMinor}, "A#m": {3, ModeMinor},
	"Ab": {4, ModeMajor}, "G#": {4, ModeMajor}, "Fm": {4, ModeMinor},
	"Eb": {5, ModeMajor}, "D#": {5, ModeMajor}, "Cm": {5, ModeMinor},
	"Bb": {6, ModeMajor}, "A#": {6, ModeMajor}, "Gm": {6, ModeMinor},
	"F": {7, ModeMajor}, "Dm": {7, ModeMinor},
}

// Parse converts a key label into a wheel position. It accepts Camelot codes
// ("8A", "12b") and standard notation ("Am", "F#m", "Db"); matching is
// case-insensitive for Camelot codes while standard notation keeps its
// conventional casing with a tolerant fallback.
func Parse(label string) (Key, error) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return Key{}, fmt.Errorf("%w: empty label", ErrUnknownKey)
	}

	if key, ok := parseCamelot(trimmed); ok {
		return key, nil
	}
	if key, ok := standardToCamelot[trimmed]; ok {
		return key, nil
	}
	if key, ok := standardToCamelot[normalizeStandard(trimmed)]; ok {
		return key, nil
	}
	return Key{}, fmt.Errorf("%w: %q", ErrUnknownKey, label)
}

// MustParse parses a key label and panics on failure. Intended for constants
// and tests.
func MustParse(label string) Key {
	key, err := Parse(label)
	if err != nil {
		panic(err)
	}
	return key
}

func parseCamelot(label string) (Key, bool) {
	if len(label) < 2 || len(label) > 3 {
		return Key{}, false
	}
	modeChar := label[len(label)-1]
	var mode Mode
	switch modeChar {
	case 'A', 'a':
		mode = ModeMinor
	case 'B', 'b':
		mode = ModeMajor
	default:
		return Key{}, false
	}
	number, err := strconv.Atoi(label[:len(label)-1])
	if err != nil || number < 1 || number > 12 {
		return Key{}, false
	}
	return Key{Number: number, Mode: mode}, true
}

func normalizeStandard(label string) string {
	if label == "" {
		return label
	}
	lower := strings.ToLower(label)
	minor := strings.HasSuffix(lower, "m")
	root := lower
	if minor {
		root = strings.TrimSuffix(lower, "m")
	}
	if root == "" {
		return label
	}
	rebuilt := strings.ToUpper(root[:1]) + root[1:]
	if minor {
		rebuilt += "m"
	}
	return rebuilt
}

// Valid reports whether the key is one of the 24 wheel positions.
func (k Key) Valid() bool {
	return k.Number >= 1 && k.Number <= 12 && (k.Mode == ModeMinor || k.Mode == ModeMajor)
}

// String renders the Camelot label, e.g. "8A".
func (k Key) String() string {
	return strconv.Itoa(k.Number) + string(k.Mode)
}

// MarshalText renders the Camelot label so keys serialize as "8A" rather
// than a struct.
func (k Key) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d/%c", ErrUnknownKey, k.Number, k.Mode)
	}
	return []byte(k.String()), nil
}

// UnmarshalText parses any label Parse accepts.
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Relative returns the relative major/minor counterpart (same number,
// opposite ring).
func (k Key) Relative() Key {
	other := ModeMinor
	if k.Mode == ModeMinor {
		other = ModeMajor
	}
	return Key{Number: k.Number, Mode: other}
}

// StepUp returns the next position clockwise on the same ring (a perfect
// fifth up).
func (k Key) StepUp() Key {
	number := k.Number + 1
	if number > 12 {
		number = 1
	}
	return Key{Number: number, Mode: k.Mode}
}

// StepDown returns the previous position counterclockwise on the same ring.
func (k Key) StepDown() Key {
	number := k.Number - 1
	if number < 1 {
		number = 12
	}
	return Key{Number: number, Mode: k.Mode}
}

// Position maps the key to a scalar in [0,1] for use as a vector dimension.
// Numbers spread across the unit interval; the minor ring sits slightly
// below its major counterpart so relative keys stay close without
// coinciding.
func (k Key) Position() float64 {
	position := float64(k.Number-1) / 11
	if k.Mode == ModeMinor {
		position -= 0.042
	}
	if position < 0 {
		return 0
	}
	if position > 1 {
		return 1
	}
	return position
}

// AllKeys returns the 24 wheel positions in ring order (1A..12A, 1B..12B).
func AllKeys() []Key {
	keys := make([]Key, 0, 24)
	for _, mode := range []Mode{ModeMinor, ModeMajor} {
		for number := 1; number <= 12; number++ {
			keys = append(keys, Key{Number: number, Mode: mode})
		}
	}
	return keys
}
