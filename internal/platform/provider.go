package platform

import (
	"errors"
	"sync"

	"github.com/mj1618/winsync/internal/model"
)

// ErrEmptyBounds is returned when a bounce area cannot contain the window.
var ErrEmptyBounds = errors.New("bounds are smaller than the window")

// SamplerOptions selects and configures a sampler.
type SamplerOptions struct {
	Shape model.Shape
	Drift Drift
	// Bounds, when set, makes a drifting window bounce off its edges.
	Bounds *model.Shape
}

// NewSampler returns a StaticSampler when opts.Drift is zero and a
// DriftSampler otherwise.
func NewSampler(opts SamplerOptions) (ShapeSampler, error) {
	if opts.Drift.IsZero() {
		return NewStaticSampler(opts.Shape), nil
	}
	if b := opts.Bounds; b != nil && (b.W < opts.Shape.W || b.H < opts.Shape.H) {
		return nil, ErrEmptyBounds
	}
	return &DriftSampler{shape: opts.Shape, drift: opts.Drift, bounds: opts.Bounds}, nil
}

// StaticSampler reports a shape that only changes through Set.
type StaticSampler struct {
	mu    sync.Mutex
	shape model.Shape
}

// NewStaticSampler returns a sampler fixed at shape.
func NewStaticSampler(shape model.Shape) *StaticSampler {
	return &StaticSampler{shape: shape}
}

func (s *StaticSampler) Shape() model.Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shape
}

// Set moves the window.
func (s *StaticSampler) Set(shape model.Shape) {
	s.mu.Lock()
	s.shape = shape
	s.mu.Unlock()
}

// DriftSampler moves the window by a fixed drift on every Step.
type DriftSampler struct {
	mu     sync.Mutex
	shape  model.Shape
	drift  Drift
	bounds *model.Shape
}

var (
	_ ShapeSampler = (*DriftSampler)(nil)
	_ Stepper      = (*DriftSampler)(nil)
)

func (s *DriftSampler) Shape() model.Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shape
}

// Step advances one frame, reflecting the drift at the bounds edges.
func (s *DriftSampler) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shape.X += s.drift.DX
	s.shape.Y += s.drift.DY
	b := s.bounds
	if b == nil {
		return
	}
	s.shape.X, s.drift.DX = bounce(s.shape.X, s.drift.DX, b.X, b.X+b.W-s.shape.W)
	s.shape.Y, s.drift.DY = bounce(s.shape.Y, s.drift.DY, b.Y, b.Y+b.H-s.shape.H)
}

func bounce(pos, vel, lo, hi int) (int, int) {
	switch {
	case pos < lo:
		return lo + (lo - pos), -vel
	case pos > hi:
		return hi - (pos - hi), -vel
	}
	return pos, vel
}
