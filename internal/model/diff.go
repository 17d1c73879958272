package model

import (
	"time"
)

// ChangeType represents the kind of roster change detected.
type ChangeType string

const (
	ChangeAdded   ChangeType = "added"
	ChangeRemoved ChangeType = "removed"
	ChangeMoved   ChangeType = "moved"
	ChangeUpdated ChangeType = "updated"
)

// RosterChange represents a single change between two roster snapshots.
type RosterChange struct {
	Type   ChangeType    `json:"type"             yaml:"type"`
	TS     int64         `json:"ts"               yaml:"ts"`
	ID     string        `json:"id"               yaml:"id"`
	Window *WindowRecord `json:"window,omitempty" yaml:"window,omitempty"` // For added/updated: the full record
	From   *Shape        `json:"from,omitempty"   yaml:"from,omitempty"`   // For moved: previous shape
	To     *Shape        `json:"to,omitempty"     yaml:"to,omitempty"`     // For moved: new shape
}

// DiffRosters compares two roster snapshots and returns the changes.
// Records are matched by id. A record whose shape and metadata both changed
// is reported once as moved and once as updated.
func DiffRosters(prev, curr Roster) []RosterChange {
	prevMap := make(map[string]WindowRecord, len(prev))
	for _, w := range prev {
		prevMap[w.ID] = w
	}
	currMap := make(map[string]WindowRecord, len(curr))
	for _, w := range curr {
		currMap[w.ID] = w
	}

	var changes []RosterChange
	now := time.Now().Unix()

	// Check for added and changed windows
	for _, w := range curr {
		prevW, existed := prevMap[w.ID]
		if !existed {
			wCopy := w
			changes = append(changes, RosterChange{
				Type:   ChangeAdded,
				TS:     now,
				ID:     w.ID,
				Window: &wCopy,
			})
			continue
		}
		if prevW.Shape != w.Shape {
			from, to := prevW.Shape, w.Shape
			changes = append(changes, RosterChange{
				Type: ChangeMoved,
				TS:   now,
				ID:   w.ID,
				From: &from,
				To:   &to,
			})
		}
		if !prevW.Metadata.Equal(w.Metadata) {
			wCopy := w
			changes = append(changes, RosterChange{
				Type:   ChangeUpdated,
				TS:     now,
				ID:     w.ID,
				Window: &wCopy,
			})
		}
	}

	// Check for removed windows
	for _, w := range prev {
		if _, exists := currMap[w.ID]; !exists {
			changes = append(changes, RosterChange{
				Type: ChangeRemoved,
				TS:   now,
				ID:   w.ID,
			})
		}
	}

	return changes
}
