package registry

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/mj1618/winsync/internal/model"
	"github.com/mj1618/winsync/internal/store"
)

// DefaultKey is the store key holding the roster.
const DefaultKey = "windows"

// DefaultMaxIDAttempts is how many ids Init tries before giving up.
const DefaultMaxIDAttempts = 5

// State is the lifecycle state of a Registry.
type State int

const (
	StateUninitialized State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ShapeSource reports the local window's current on-screen shape.
type ShapeSource interface {
	Shape() model.Shape
}

// Registry is one window's view of the shared roster.
type Registry struct {
	store         store.Store
	shapes        ShapeSource
	key           string
	logger        *slog.Logger
	metrics       *Metrics
	newID         func() (string, error)
	maxIDAttempts int

	callbacks dispatcher

	mu          sync.Mutex
	state       State
	self        model.WindowRecord
	windows     model.Roster
	ids         []string
	announced   bool
	snapPending bool
	writeFailed bool
	external    int
	wake        chan struct{}
	unsubscribe func()
}

// New creates an uninitialized registry over s. shapes is sampled on Init and
// on every Update.
func New(s store.Store, shapes ShapeSource, opts ...Option) *Registry {
	r := &Registry{
		store:         s,
		shapes:        shapes,
		key:           DefaultKey,
		newID:         NewID,
		maxIDAttempts: DefaultMaxIDAttempts,
		windows:       model.Roster{},
		wake:          make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.metrics == nil {
		r.metrics = NewMetrics(nil)
	}
	if r.maxIDAttempts < 1 {
		r.maxIDAttempts = 1
	}
	return r
}

// SetShapeChangeCallback registers the handler for local shape changes,
// replacing any previous one.
func (r *Registry) SetShapeChangeCallback(fn ShapeChangeFunc) {
	r.callbacks.setShape(fn)
}

// SetRosterChangeCallback registers the handler for id-set changes,
// replacing any previous one.
func (r *Registry) SetRosterChangeCallback(fn RosterChangeFunc) {
	r.callbacks.setRoster(fn)
}

// Init registers the local window with metadata and subscribes to peer
// writes. Failures are returned; the registry stays uninitialized and may be
// retried.
func (r *Registry) Init(metadata map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateUninitialized {
		return fmt.Errorf("%w (state %s)", ErrAlreadyInitialized, r.state)
	}
	meta, err := model.NormalizeMetadata(metadata)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}

	roster, _, err := r.readRosterLocked()
	if err != nil {
		r.logger.Warn("could not read roster, starting from empty", "key", r.key, "error", err)
		roster = model.Roster{}
	}

	id, err := r.generateIDLocked(roster)
	if err != nil {
		return err
	}

	r.self = model.WindowRecord{ID: id, Shape: r.shapes.Shape(), Metadata: meta}
	roster = roster.Upsert(r.self)
	_ = r.writeLocked(roster)

	r.windows = roster
	r.snapPending = true
	r.unsubscribe = r.store.OnExternalChange(r.key, r.onExternalChange)
	r.state = StateActive
	r.metrics.rosterSize.Set(float64(len(roster)))

	r.logger.Info("window registered", "id", id, "shape", r.self.Shape.String(), "windows", len(roster))
	return nil
}

// Update runs one reconciliation tick. It publishes a changed local shape,
// re-reads the roster, repairs the local record if it was lost or is stale,
// and fires at most one shape and one roster notification. It is a no-op
// unless the registry is active.
func (r *Registry) Update() {
	shapeChanged, easing, rosterChanged := r.reconcile()
	if shapeChanged {
		r.callbacks.shapeChanged(easing)
	}
	if rosterChanged {
		r.callbacks.rosterChanged()
	}
}

func (r *Registry) reconcile() (shapeChanged, easing, rosterChanged bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateActive {
		return false, false, false
	}
	r.metrics.ticks.Inc()
	needWrite := r.writeFailed

	shape := r.shapes.Shape()
	if shape != r.self.Shape || r.snapPending {
		if shape != r.self.Shape {
			needWrite = true
		}
		r.self.Shape = shape
		shapeChanged = true
		easing = !r.snapPending
		r.snapPending = false
		r.metrics.shapeChanges.Inc()
	}

	roster, repair, err := r.readRosterLocked()
	if err != nil {
		r.logger.Warn("could not read roster, keeping cached view", "key", r.key, "error", err)
		return shapeChanged, easing, false
	}
	if repair {
		needWrite = true
	}
	if r.external > 0 {
		r.logger.Debug("peer roster writes observed", "count", r.external)
		r.external = 0
	}

	if cur, ok := roster.Get(r.self.ID); !ok || !cur.Equal(r.self) {
		if !ok {
			r.logger.Debug("local record missing from roster, re-adding", "id", r.self.ID)
		}
		roster = roster.Upsert(r.self)
		needWrite = true
	}
	if needWrite {
		_ = r.writeLocked(roster)
	}

	r.windows = roster
	r.metrics.rosterSize.Set(float64(len(roster)))

	ids := roster.IDs()
	if !r.announced || !model.SameIDs(ids, r.ids) {
		r.ids = ids
		r.announced = true
		rosterChanged = true
		r.metrics.rosterChanges.Inc()
		r.logger.Debug("roster changed", "windows", len(ids))
	}
	return shapeChanged, easing, rosterChanged
}

// Windows returns the cached roster. It performs no I/O.
func (r *Registry) Windows() model.Roster {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.windows.Clone()
}

// ID returns the local window id, or "" before Init.
func (r *Registry) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.self.ID
}

// Self returns the local window's authoritative record.
func (r *Registry) Self() model.WindowRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.self.Clone()
}

// State returns the lifecycle state.
func (r *Registry) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Close is the unload hook: it stops listening for peer writes and removes
// the local record from the stored roster. It is best-effort and idempotent;
// the registry is closed even when the final write fails.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateClosed:
		return nil
	case StateUninitialized:
		r.state = StateClosed
		return nil
	}

	r.state = StateClosed
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}

	roster, _, err := r.readRosterLocked()
	if err != nil {
		return fmt.Errorf("unregister window %s: %w", r.self.ID, err)
	}
	roster = roster.Remove(r.self.ID)
	if err := r.writeLocked(roster); err != nil {
		return fmt.Errorf("unregister window %s: %w", r.self.ID, err)
	}
	r.windows = roster
	r.logger.Info("window unregistered", "id", r.self.ID, "windows", len(roster))
	return nil
}

func (r *Registry) onExternalChange(key string, _ []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateActive || key != r.key {
		return
	}
	r.external++
	r.metrics.externalChanges.Inc()
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Changed receives a value after a peer writes the roster, so a host can run
// Update before its next scheduled tick. Notifications coalesce; the channel
// is never closed.
func (r *Registry) Changed() <-chan struct{} {
	return r.wake
}

// readRosterLocked reads and decodes the stored roster. repair is true when
// the stored value must be rewritten (corrupt or holding duplicate ids).
func (r *Registry) readRosterLocked() (roster model.Roster, repair bool, err error) {
	data, ok, err := r.store.Read(r.key)
	if err != nil {
		r.metrics.storeErrors.WithLabelValues("read").Inc()
		return nil, false, err
	}
	if !ok {
		data = nil
	}

	res := model.DecodeRoster(data)
	switch res.Status {
	case model.RosterCorrupt:
		r.metrics.corruptReads.Inc()
		r.logger.Warn("stored roster is corrupt, rebuilding", "key", r.key, "error", res.Err)
		return res.Roster, true, nil
	case model.RosterValid:
		if res.Duplicates > 0 {
			r.logger.Warn("stored roster has duplicate ids, rewriting", "key", r.key, "duplicates", res.Duplicates)
			return res.Roster, true, nil
		}
	}
	return res.Roster, false, nil
}

// writeLocked persists roster. A failure is remembered so the next tick
// writes again.
func (r *Registry) writeLocked(roster model.Roster) error {
	data, err := roster.Encode()
	if err == nil {
		err = r.store.Write(r.key, data)
	}
	if err != nil {
		r.writeFailed = true
		r.metrics.storeErrors.WithLabelValues("write").Inc()
		r.logger.Warn("roster write failed, will retry next tick", "key", r.key, "error", err)
		return err
	}
	r.writeFailed = false
	return nil
}

func (r *Registry) generateIDLocked(roster model.Roster) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxIDAttempts; attempt++ {
		id, err := r.newID()
		if err != nil {
			lastErr = err
			continue
		}
		if id != "" && roster.Index(id) < 0 {
			return id, nil
		}
		r.logger.Debug("generated window id is taken, retrying", "id", id, "attempt", attempt)
	}
	if lastErr != nil {
		return "", fmt.Errorf("%w after %d attempts: %v", ErrIDCollision, r.maxIDAttempts, lastErr)
	}
	return "", fmt.Errorf("%w after %d attempts", ErrIDCollision, r.maxIDAttempts)
}
