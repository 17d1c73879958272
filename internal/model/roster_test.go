package model

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeRoster_Absent(t *testing.T) {
	res := DecodeRoster(nil)
	if res.Status != RosterAbsent {
		t.Fatalf("status: got %s, want absent", res.Status)
	}
	if res.Roster == nil || len(res.Roster) != 0 {
		t.Errorf("absent roster should be empty and non-nil, got %#v", res.Roster)
	}
}

func TestDecodeRoster_Valid(t *testing.T) {
	data := []byte(`[
		{"id":"a","shape":{"x":1,"y":2,"w":300,"h":200},"metadata":{"role":"primary","n":3}},
		{"id":"b","shape":{"x":0,"y":0,"w":0,"h":0}}
	]`)
	res := DecodeRoster(data)
	if res.Status != RosterValid {
		t.Fatalf("status: got %s (%v), want valid", res.Status, res.Err)
	}
	want := Roster{
		{ID: "a", Shape: Shape{1, 2, 300, 200}, Metadata: Metadata{"role": "primary", "n": float64(3)}},
		{ID: "b", Shape: Shape{}},
	}
	if diff := cmp.Diff(want, res.Roster); diff != "" {
		t.Errorf("roster mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRoster_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"garbage", "not json at all"},
		{"empty", ""},
		{"object", `{"id":"a"}`},
		{"null", "null"},
		{"truncated", `[{"id":"a","shape":{"x":1`},
		{"missing id", `[{"shape":{"x":1,"y":2,"w":3,"h":4}}]`},
		{"empty id", `[{"id":"","shape":{"x":1,"y":2,"w":3,"h":4}}]`},
		{"numeric id", `[{"id":7,"shape":{"x":1,"y":2,"w":3,"h":4}}]`},
		{"missing shape", `[{"id":"a"}]`},
		{"partial shape", `[{"id":"a","shape":{"x":1,"y":2}}]`},
		{"negative size", `[{"id":"a","shape":{"x":1,"y":2,"w":-3,"h":4}}]`},
		{"string coord", `[{"id":"a","shape":{"x":"1","y":2,"w":3,"h":4}}]`},
		{"metadata array", `[{"id":"a","shape":{"x":1,"y":2,"w":3,"h":4},"metadata":[1,2]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := DecodeRoster([]byte(tt.data))
			if res.Status != RosterCorrupt {
				t.Fatalf("status: got %s, want corrupt", res.Status)
			}
			if !errors.Is(res.Err, ErrCorruptRoster) {
				t.Errorf("err should wrap ErrCorruptRoster, got %v", res.Err)
			}
			if len(res.Roster) != 0 {
				t.Errorf("corrupt roster should decode as empty, got %d records", len(res.Roster))
			}
		})
	}
}

func TestDecodeRoster_DropsDuplicateIDs(t *testing.T) {
	data := []byte(`[
		{"id":"a","shape":{"x":1,"y":1,"w":1,"h":1}},
		{"id":"b","shape":{"x":2,"y":2,"w":2,"h":2}},
		{"id":"a","shape":{"x":9,"y":9,"w":9,"h":9}}
	]`)
	res := DecodeRoster(data)
	if res.Status != RosterValid {
		t.Fatalf("status: got %s", res.Status)
	}
	if res.Duplicates != 1 {
		t.Errorf("duplicates: got %d, want 1", res.Duplicates)
	}
	if diff := cmp.Diff([]string{"a", "b"}, res.Roster.IDs()); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}
	if res.Roster[0].Shape.X != 1 {
		t.Errorf("first occurrence should win, got shape %v", res.Roster[0].Shape)
	}
}

func TestRoster_EncodeDecodeMetadata(t *testing.T) {
	meta, err := NormalizeMetadata(map[string]any{
		"role":   "primary",
		"count":  2,
		"nested": map[string]any{"list": []any{1, "two", true}},
	})
	if err != nil {
		t.Fatal(err)
	}
	r := Roster{{ID: "a", Shape: Shape{10, 20, 30, 40}, Metadata: meta}}
	data, err := r.Encode()
	if err != nil {
		t.Fatal(err)
	}
	res := DecodeRoster(data)
	if res.Status != RosterValid {
		t.Fatalf("status: got %s (%v)", res.Status, res.Err)
	}
	if !res.Roster[0].Equal(r[0]) {
		t.Errorf("record changed across encode/decode:\n got %#v\nwant %#v", res.Roster[0], r[0])
	}
}

func TestRoster_EncodeNil(t *testing.T) {
	var r Roster
	data, err := r.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]" {
		t.Errorf("nil roster: got %s, want []", data)
	}
}

func TestRoster_UpsertRemove(t *testing.T) {
	r := Roster{{ID: "a"}, {ID: "b"}}

	moved := r.Upsert(WindowRecord{ID: "a", Shape: Shape{X: 5}})
	if moved[0].Shape.X != 5 || len(moved) != 2 {
		t.Errorf("upsert existing: got %#v", moved)
	}
	if r[0].Shape.X != 0 {
		t.Error("upsert must not modify the receiver")
	}

	added := r.Upsert(WindowRecord{ID: "c"})
	if diff := cmp.Diff([]string{"a", "b", "c"}, added.IDs()); diff != "" {
		t.Errorf("upsert new (-want +got):\n%s", diff)
	}
	if added[2].ID != "c" {
		t.Error("new records should be appended in join order")
	}

	removed := added.Remove("b")
	if diff := cmp.Diff([]string{"a", "c"}, removed.IDs()); diff != "" {
		t.Errorf("remove (-want +got):\n%s", diff)
	}
	if removed.Index("b") != -1 {
		t.Error("removed id still indexed")
	}
}

func TestSameIDs(t *testing.T) {
	a := Roster{{ID: "x"}, {ID: "y"}}.IDs()
	b := Roster{{ID: "y"}, {ID: "x"}}.IDs()
	if !SameIDs(a, b) {
		t.Error("id sets should be order-insensitive")
	}
	if SameIDs(a, Roster{{ID: "x"}}.IDs()) {
		t.Error("different sizes should differ")
	}
	if SameIDs(a, Roster{{ID: "x"}, {ID: "z"}}.IDs()) {
		t.Error("different members should differ")
	}
}

func TestNormalizeMetadata_Unserializable(t *testing.T) {
	_, err := NormalizeMetadata(map[string]any{"ch": make(chan int)})
	if err == nil {
		t.Fatal("expected error for channel metadata")
	}
}

func TestNormalizeMetadata_Nil(t *testing.T) {
	m, err := NormalizeMetadata(nil)
	if err != nil || m != nil {
		t.Errorf("nil metadata: got %#v, %v", m, err)
	}
}

func TestRosterStatus_String(t *testing.T) {
	if RosterCorrupt.String() != "corrupt" || RosterValid.String() != "valid" || RosterAbsent.String() != "absent" {
		t.Error("unexpected status names")
	}
}

func TestRoster_CloneCopiesMetadata(t *testing.T) {
	orig := Roster{{
		ID:       "a",
		Metadata: Metadata{"role": "primary", "tags": []any{"x"}, "nested": map[string]any{"k": "v"}},
	}}
	c := orig.Clone()
	c[0].Metadata["role"] = "changed"
	c[0].Metadata["tags"].([]any)[0] = "y"
	c[0].Metadata["nested"].(map[string]any)["k"] = "w"

	want := Metadata{"role": "primary", "tags": []any{"x"}, "nested": map[string]any{"k": "v"}}
	if diff := cmp.Diff(want, orig[0].Metadata); diff != "" {
		t.Errorf("original metadata changed through clone (-want +got):\n%s", diff)
	}
}
