package platform

import "github.com/mj1618/winsync/internal/model"

// ShapeSampler reports the host window's current on-screen geometry.
type ShapeSampler interface {
	Shape() model.Shape
}

// Stepper is implemented by samplers whose geometry changes once per frame.
// The host loop calls Step before each registry tick.
type Stepper interface {
	Step()
}
