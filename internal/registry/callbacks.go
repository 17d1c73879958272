package registry

import "sync"

// ShapeChangeFunc is called when the local window's shape changed. easing is
// false when the host should snap to the new shape instead of animating.
type ShapeChangeFunc func(easing bool)

// RosterChangeFunc is called when the set of window ids changed. Call
// Registry.Windows for the new snapshot.
type RosterChangeFunc func()

// dispatcher holds one handler per notification type. Firing an empty slot
// is a no-op.
type dispatcher struct {
	mu       sync.Mutex
	onShape  ShapeChangeFunc
	onRoster RosterChangeFunc
}

func (d *dispatcher) setShape(fn ShapeChangeFunc) {
	d.mu.Lock()
	d.onShape = fn
	d.mu.Unlock()
}

func (d *dispatcher) setRoster(fn RosterChangeFunc) {
	d.mu.Lock()
	d.onRoster = fn
	d.mu.Unlock()
}

func (d *dispatcher) shapeChanged(easing bool) {
	d.mu.Lock()
	fn := d.onShape
	d.mu.Unlock()
	if fn != nil {
		fn(easing)
	}
}

func (d *dispatcher) rosterChanged() {
	d.mu.Lock()
	fn := d.onRoster
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}
