package model

import "testing"

func TestFilterWindows_NoFilters(t *testing.T) {
	windows := Roster{{ID: "a"}, {ID: "b"}}
	result := FilterWindows(windows, nil, nil)
	if len(result) != 2 {
		t.Errorf("expected 2 windows, got %d", len(result))
	}
}

func TestFilterWindows_Metadata(t *testing.T) {
	windows := Roster{
		{ID: "a", Metadata: Metadata{"role": "primary", "screen": float64(1)}},
		{ID: "b", Metadata: Metadata{"role": "secondary", "screen": float64(2)}},
		{ID: "c"},
	}
	tests := []struct {
		name string
		meta map[string]string
		want []string
	}{
		{"string value", map[string]string{"role": "primary"}, []string{"a"}},
		{"case-insensitive", map[string]string{"role": "SECONDARY"}, []string{"b"}},
		{"numeric value", map[string]string{"screen": "2"}, []string{"b"}},
		{"all pairs must match", map[string]string{"role": "primary", "screen": "2"}, nil},
		{"missing key", map[string]string{"nope": "x"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterWindows(windows, tt.meta, nil)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d windows, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("window %d: got %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestFilterWindows_BBox(t *testing.T) {
	windows := Roster{
		{ID: "inside", Shape: Shape{10, 10, 50, 30}},
		{ID: "outside", Shape: Shape{200, 200, 50, 30}},
		{ID: "overlaps", Shape: Shape{90, 90, 50, 30}},
	}
	bbox := Shape{0, 0, 100, 100}
	result := FilterWindows(windows, nil, &bbox)
	if len(result) != 2 {
		t.Fatalf("expected 2 windows (inside + overlapping), got %d", len(result))
	}
	if result[0].ID != "inside" || result[1].ID != "overlaps" {
		t.Errorf("unexpected ids: %s, %s", result[0].ID, result[1].ID)
	}
}

func TestParseMetaPairs(t *testing.T) {
	got, err := ParseMetaPairs([]string{"role=primary", " screen = 2 ", "empty="})
	if err != nil {
		t.Fatal(err)
	}
	if got["role"] != "primary" || got["screen"] != "2" || got["empty"] != "" {
		t.Errorf("unexpected pairs: %#v", got)
	}
}

func TestParseMetaPairs_Invalid(t *testing.T) {
	for _, p := range []string{"novalue", "=x", ""} {
		if _, err := ParseMetaPairs([]string{p}); err == nil {
			t.Errorf("ParseMetaPairs(%q) should fail", p)
		}
	}
}

func TestShape_Helpers(t *testing.T) {
	s := Shape{X: 10, Y: 20, W: 100, H: 50}
	cx, cy := s.Center()
	if cx != 60 || cy != 45 {
		t.Errorf("center: got (%d,%d), want (60,45)", cx, cy)
	}
	if s.String() != "10,20,100,50" {
		t.Errorf("string: got %q", s.String())
	}
	if s.Intersects(Shape{X: 110, Y: 20, W: 10, H: 10}) {
		t.Error("touching edges should not intersect")
	}
}
