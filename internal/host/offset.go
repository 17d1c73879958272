package host

import (
	"math"
	"sync"

	"github.com/mj1618/winsync/internal/model"
)

// DefaultFalloff is the fraction of the remaining distance covered per frame.
const DefaultFalloff = 0.05

// Point is a position in screen space.
type Point struct {
	X, Y float64
}

// Offset eases a scene offset toward the negated window origin, so content
// drawn in shared screen coordinates stays put while the window moves.
type Offset struct {
	mu      sync.Mutex
	falloff float64
	current Point
	target  Point
}

// NewOffset returns an Offset using falloff per frame. Values outside (0,1]
// fall back to DefaultFalloff.
func NewOffset(falloff float64) *Offset {
	if falloff <= 0 || falloff > 1 {
		falloff = DefaultFalloff
	}
	return &Offset{falloff: falloff}
}

// SetShape retargets the offset to the window at shape. With easing false
// the offset jumps there immediately.
func (o *Offset) SetShape(shape model.Shape, easing bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.target = Point{X: -float64(shape.X), Y: -float64(shape.Y)}
	if !easing {
		o.current = o.target
	}
}

// Step advances one frame and returns the new offset.
func (o *Offset) Step() Point {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.current.X += (o.target.X - o.current.X) * o.falloff
	o.current.Y += (o.target.Y - o.current.Y) * o.falloff
	return o.current
}

// Current returns the offset without advancing it.
func (o *Offset) Current() Point {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Settled reports whether the offset is within eps of its target.
func (o *Offset) Settled(eps float64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return math.Abs(o.target.X-o.current.X) <= eps && math.Abs(o.target.Y-o.current.Y) <= eps
}
