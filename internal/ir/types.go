package ir

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"time"
)

// ItemID is the stable identity of a list element.
// It is independent of the element's position.
type ItemID string

// Model is the opaque value backing a list element.
// Models must be comparable; see IsComparableModel.
type Model = any

// Size is a computed item size in layout units (terminal cells for the
// bundled text sizer).
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsZero reports whether both dimensions are zero.
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// SizeRange constrains computed sizes. A zero component in Max means
// that dimension is unbounded.
type SizeRange struct {
	Min Size `json:"min"`
	Max Size `json:"max"`
}

// Clamp returns s constrained to the range.
func (r SizeRange) Clamp(s Size) Size {
	s.Width = clampDim(s.Width, r.Min.Width, r.Max.Width)
	s.Height = clampDim(s.Height, r.Min.Height, r.Max.Height)
	return s
}

func clampDim(v, lo, hi int) int {
	if v < lo {
		v = lo
	}
	if hi > 0 && v > hi {
		v = hi
	}
	return v
}

// Sizer computes the size of a single model under a configuration.
//
// Implementations are called from worker goroutines and must be safe for
// concurrent use. A returned error aborts the whole transition.
type Sizer interface {
	SizeFor(ctx context.Context, model Model, cfg *Configuration) (Size, error)
}

// SizerFunc adapts a plain function to the Sizer interface.
type SizerFunc func(ctx context.Context, model Model, cfg *Configuration) (Size, error)

// SizeFor calls f(ctx, model, cfg).
func (f SizerFunc) SizeFor(ctx context.Context, model Model, cfg *Configuration) (Size, error) {
	return f(ctx, model, cfg)
}

// Configuration is the sizing context a snapshot was produced under.
//
// Configurations are compared by pointer identity only. Replacing any field
// means building a new Configuration and submitting it through
// UpdateConfiguration.
type Configuration struct {
	Sizer     Sizer
	SizeRange SizeRange
	Context   any
}

// NewConfiguration creates a configuration with the given sizer and range.
func NewConfiguration(sizer Sizer, sizeRange SizeRange) *Configuration {
	return &Configuration{Sizer: sizer, SizeRange: sizeRange}
}

// Size computes the size of model under c. A nil configuration or a nil
// sizer yields a zero size clamped to the range.
func (c *Configuration) Size(ctx context.Context, model Model) (Size, error) {
	if c == nil {
		return Size{}, nil
	}
	if c.Sizer == nil {
		return c.SizeRange.Clamp(Size{}), nil
	}
	s, err := c.Sizer.SizeFor(ctx, model, c)
	if err != nil {
		return Size{}, err
	}
	return c.SizeRange.Clamp(s), nil
}

// Item is one element of a snapshot.
type Item struct {
	ID    ItemID `json:"id"`
	Model Model  `json:"model"`
	Size  Size   `json:"size"`
}

// Entry is an unsized (identity, model) pair.
type Entry struct {
	ID    ItemID `json:"id"`
	Model Model  `json:"model"`
}

// UpdateMode selects how a changeset is applied.
type UpdateMode int

const (
	// ModeAsync computes the transition on a worker goroutine.
	ModeAsync UpdateMode = iota
	// ModeSync flushes earlier work and applies before returning.
	ModeSync
)

// String returns "async" or "sync".
func (m UpdateMode) String() string {
	switch m {
	case ModeAsync:
		return "async"
	case ModeSync:
		return "sync"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseUpdateMode parses "async" or "sync". The empty string is async.
func ParseUpdateMode(s string) (UpdateMode, error) {
	switch s {
	case "", "async":
		return ModeAsync, nil
	case "sync":
		return ModeSync, nil
	default:
		return 0, fmt.Errorf("unknown update mode %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m UpdateMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *UpdateMode) UnmarshalText(b []byte) error {
	v, err := ParseUpdateMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// UserInfo is caller context carried from ApplyChangeset to listeners.
type UserInfo map[string]any

// Clone returns a shallow copy. A nil map stays nil.
func (u UserInfo) Clone() UserInfo {
	if u == nil {
		return nil
	}
	return maps.Clone(u)
}

// BoundsAnimation describes a custom resize animation for pure-update
// transitions.
type BoundsAnimation struct {
	Duration time.Duration `json:"duration"`
	Delay    time.Duration `json:"delay"`
	// Spring selects a damped spring curve instead of ease-in-out.
	Spring  bool    `json:"spring"`
	Damping float64 `json:"damping,omitempty"`
}

// IsComparableModel reports whether m can be used as a lookup key. Interface
// values nested in m are checked by their dynamic type, so a struct holding
// a slice in an interface field is rejected.
func IsComparableModel(m Model) bool {
	if m == nil {
		return true
	}
	return reflect.ValueOf(m).Comparable()
}

func modelsEqual(a, b Model) bool {
	return a == b
}
