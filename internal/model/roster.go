package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Roster is the ordered list of known windows. Order is join order.
type Roster []WindowRecord

// RosterStatus tags the outcome of decoding a stored roster value.
type RosterStatus int

const (
	// RosterAbsent means no value was stored under the roster key.
	RosterAbsent RosterStatus = iota
	// RosterValid means the value parsed and passed schema checks.
	RosterValid
	// RosterCorrupt means the value was unparsable or schema-mismatched.
	RosterCorrupt
)

func (s RosterStatus) String() string {
	switch s {
	case RosterAbsent:
		return "absent"
	case RosterValid:
		return "valid"
	case RosterCorrupt:
		return "corrupt"
	default:
		return fmt.Sprintf("RosterStatus(%d)", int(s))
	}
}

// RosterResult is the tagged outcome of DecodeRoster.
type RosterResult struct {
	Status RosterStatus
	Roster Roster
	// Duplicates counts records dropped because their id was already present.
	Duplicates int
	// Err explains why a value was considered corrupt.
	Err error
}

// ErrCorruptRoster is wrapped by RosterResult.Err for corrupt values.
var ErrCorruptRoster = errors.New("corrupt roster")

// wireShape uses pointers so missing fields can be told apart from zeros.
type wireShape struct {
	X *int `json:"x"`
	Y *int `json:"y"`
	W *int `json:"w"`
	H *int `json:"h"`
}

type wireRecord struct {
	ID       *string         `json:"id"`
	Shape    *wireShape      `json:"shape"`
	Metadata json.RawMessage `json:"metadata"`
}

// DecodeRoster parses a stored roster value. A nil value is RosterAbsent.
// Any record failing validation marks the whole value corrupt; records with
// an id that already appeared are dropped and counted in Duplicates.
func DecodeRoster(data []byte) RosterResult {
	if data == nil {
		return RosterResult{Status: RosterAbsent, Roster: Roster{}}
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return corrupt(errors.New("value is not a JSON array"))
	}

	var wire []wireRecord
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return corrupt(err)
	}

	roster := make(Roster, 0, len(wire))
	seen := make(map[string]bool, len(wire))
	dups := 0
	for i, w := range wire {
		rec, err := w.record()
		if err != nil {
			return corrupt(fmt.Errorf("record %d: %w", i, err))
		}
		if seen[rec.ID] {
			dups++
			continue
		}
		seen[rec.ID] = true
		roster = append(roster, rec)
	}
	return RosterResult{Status: RosterValid, Roster: roster, Duplicates: dups}
}

func corrupt(err error) RosterResult {
	return RosterResult{
		Status: RosterCorrupt,
		Roster: Roster{},
		Err:    fmt.Errorf("%w: %v", ErrCorruptRoster, err),
	}
}

func (w wireRecord) record() (WindowRecord, error) {
	if w.ID == nil || *w.ID == "" {
		return WindowRecord{}, errors.New("missing id")
	}
	if w.Shape == nil || w.Shape.X == nil || w.Shape.Y == nil || w.Shape.W == nil || w.Shape.H == nil {
		return WindowRecord{}, errors.New("missing or incomplete shape")
	}
	if *w.Shape.W < 0 || *w.Shape.H < 0 {
		return WindowRecord{}, errors.New("negative shape size")
	}
	rec := WindowRecord{
		ID:    *w.ID,
		Shape: Shape{X: *w.Shape.X, Y: *w.Shape.Y, W: *w.Shape.W, H: *w.Shape.H},
	}
	if len(w.Metadata) > 0 && !bytes.Equal(w.Metadata, []byte("null")) {
		if w.Metadata[0] != '{' {
			return WindowRecord{}, errors.New("metadata is not an object")
		}
		if err := json.Unmarshal(w.Metadata, &rec.Metadata); err != nil {
			return WindowRecord{}, fmt.Errorf("metadata: %w", err)
		}
	}
	return rec, nil
}

// Encode serializes the roster as a JSON array. A nil roster encodes as [].
func (r Roster) Encode() ([]byte, error) {
	if r == nil {
		r = Roster{}
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode roster: %w", err)
	}
	return b, nil
}

// Clone returns a deep copy: neither the slice nor any record's metadata is
// shared with r.
func (r Roster) Clone() Roster {
	out := make(Roster, len(r))
	for i, rec := range r {
		out[i] = rec.Clone()
	}
	return out
}

// Index returns the position of the record with the given id, or -1.
func (r Roster) Index(id string) int {
	for i := range r {
		if r[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns the record with the given id.
func (r Roster) Get(id string) (WindowRecord, bool) {
	if i := r.Index(id); i >= 0 {
		return r[i], true
	}
	return WindowRecord{}, false
}

// Upsert replaces the record with rec.ID in place, or appends it.
func (r Roster) Upsert(rec WindowRecord) Roster {
	out := r.Clone()
	if i := out.Index(rec.ID); i >= 0 {
		out[i] = rec
		return out
	}
	return append(out, rec)
}

// Remove returns the roster without the record with the given id.
func (r Roster) Remove(id string) Roster {
	out := make(Roster, 0, len(r))
	for _, rec := range r {
		if rec.ID != id {
			out = append(out, rec)
		}
	}
	return out
}

// IDs returns the sorted id set of the roster.
func (r Roster) IDs() []string {
	ids := make([]string, len(r))
	for i, rec := range r {
		ids[i] = rec.ID
	}
	sort.Strings(ids)
	return ids
}

// SameIDs reports whether two sorted id sets are equal.
func SameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
