package platform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mj1618/winsync/internal/model"
)

// Drift is a per-frame displacement applied by a DriftSampler.
type Drift struct {
	DX, DY int
}

// IsZero reports whether the drift moves nothing.
func (d Drift) IsZero() bool {
	return d.DX == 0 && d.DY == 0
}

// ParseShape parses a "x,y,w,h" string into a Shape.
func ParseShape(s string) (model.Shape, error) {
	vals, err := parseInts(s, 4)
	if err != nil {
		return model.Shape{}, fmt.Errorf("invalid shape %q: %w", s, err)
	}
	if vals[2] < 0 || vals[3] < 0 {
		return model.Shape{}, fmt.Errorf("invalid shape %q: width and height must not be negative", s)
	}
	return model.Shape{X: vals[0], Y: vals[1], W: vals[2], H: vals[3]}, nil
}

// ParseDrift parses a "dx,dy" string into a Drift.
func ParseDrift(s string) (Drift, error) {
	vals, err := parseInts(s, 2)
	if err != nil {
		return Drift{}, fmt.Errorf("invalid drift %q: %w", s, err)
	}
	return Drift{DX: vals[0], DY: vals[1]}, nil
}

func parseInts(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated integers", n)
	}
	vals := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}
