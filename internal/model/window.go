package model

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Shape is a window's on-screen rectangle in screen coordinates.
type Shape struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// Bounds returns the shape as an [x, y, width, height] array.
func (s Shape) Bounds() [4]int {
	return [4]int{s.X, s.Y, s.W, s.H}
}

// Center returns the center point of the rectangle.
func (s Shape) Center() (cx, cy int) {
	return s.X + s.W/2, s.Y + s.H/2
}

// Intersects reports whether two shapes overlap.
func (s Shape) Intersects(o Shape) bool {
	return boundsIntersect(s.Bounds(), o.Bounds())
}

func (s Shape) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", s.X, s.Y, s.W, s.H)
}

// Metadata is the caller-supplied payload attached to a window. The registry
// never interprets it.
type Metadata map[string]any

// NormalizeMetadata round-trips m through JSON so the local copy has exactly
// the shape a peer will decode (numbers become float64, structs become maps).
// A nil map stays nil.
func NormalizeMetadata(m map[string]any) (Metadata, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("metadata is not serializable: %w", err)
	}
	var out Metadata
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("metadata is not serializable: %w", err)
	}
	return out, nil
}

// Equal reports structural equality.
func (m Metadata) Equal(o Metadata) bool {
	if len(m) == 0 && len(o) == 0 {
		return true
	}
	return reflect.DeepEqual(m, o)
}

// Clone returns a deep copy. Nested maps and slices produced by JSON
// decoding are copied too.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return map[string]any(Metadata(v).Clone())
	case Metadata:
		return v.Clone()
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// WindowRecord describes one participant in the roster.
type WindowRecord struct {
	ID       string   `json:"id"                 yaml:"id"`
	Shape    Shape    `json:"shape"              yaml:"shape"`
	Metadata Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Equal reports whether two records carry the same id, shape and metadata.
func (w WindowRecord) Equal(o WindowRecord) bool {
	return w.ID == o.ID && w.Shape == o.Shape && w.Metadata.Equal(o.Metadata)
}

// Clone returns a copy that shares no metadata with w.
func (w WindowRecord) Clone() WindowRecord {
	w.Metadata = w.Metadata.Clone()
	return w
}
