package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mj1618/winsync/internal/model"
)

// ErrNoCondition is returned when a wait names nothing to wait for.
var ErrNoCondition = errors.New("specify at least one condition: count or id")

// ErrTimeout is returned when a wait gives up.
var ErrTimeout = errors.New("timed out waiting for roster condition")

// Condition describes a roster state to wait for. Count and ID may be
// combined; both must then hold.
type Condition struct {
	// Count is satisfied by at least Count windows, or fewer with Gone.
	Count int
	// ID is satisfied when the window is present, or absent with Gone.
	ID   string
	Gone bool
}

// Validate checks that the condition names something.
func (c Condition) Validate() error {
	if c.Count <= 0 && c.ID == "" {
		return ErrNoCondition
	}
	return nil
}

// Met reports whether r satisfies the condition. The matched window is
// returned when an ID is named and present.
func (c Condition) Met(r model.Roster) (bool, *model.WindowRecord) {
	var match *model.WindowRecord
	ok := true
	if c.Count > 0 {
		if c.Gone {
			ok = len(r) < c.Count
		} else {
			ok = len(r) >= c.Count
		}
	}
	if c.ID != "" {
		rec, present := r.Get(c.ID)
		if present {
			match = &rec
		}
		ok = ok && present != c.Gone
	}
	return ok, match
}

func (c Condition) String() string {
	var parts []string
	if c.Count > 0 {
		op := ">="
		if c.Gone {
			op = "<"
		}
		parts = append(parts, fmt.Sprintf("count%s%d", op, c.Count))
	}
	if c.ID != "" {
		verb := "present"
		if c.Gone {
			verb = "gone"
		}
		parts = append(parts, fmt.Sprintf("id %s %s", c.ID, verb))
	}
	return strings.Join(parts, " and ")
}

// WaitOutcome is the roster state that satisfied a wait.
type WaitOutcome struct {
	Roster  model.Roster
	Match   *model.WindowRecord
	Elapsed time.Duration
}

// WaitFor polls read every interval until cond holds or ctx is done.
// Transient read errors are retried; the last one is reported on timeout.
func WaitFor(ctx context.Context, read func() (model.Roster, error), cond Condition, interval time.Duration) (WaitOutcome, error) {
	if err := cond.Validate(); err != nil {
		return WaitOutcome{}, err
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		roster, err := read()
		if err != nil {
			lastErr = err
		} else if ok, match := cond.Met(roster); ok {
			return WaitOutcome{Roster: roster, Match: match, Elapsed: time.Since(start)}, nil
		}

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return WaitOutcome{}, fmt.Errorf("%w after %s (last error: %v)", ErrTimeout, time.Since(start).Round(time.Millisecond), lastErr)
			}
			return WaitOutcome{}, fmt.Errorf("%w after %s", ErrTimeout, time.Since(start).Round(time.Millisecond))
		case <-ticker.C:
		}
	}
}
