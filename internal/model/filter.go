package model

import (
	"fmt"
	"strings"
)

// FilterWindows returns the windows whose metadata matches every key=value
// pair in meta and, when bbox is non-nil, whose shape overlaps bbox.
// Metadata values are compared by their fmt representation, so "2" matches
// both the string "2" and the number 2.
func FilterWindows(windows Roster, meta map[string]string, bbox *Shape) Roster {
	if len(meta) == 0 && bbox == nil {
		return windows
	}

	result := Roster{}
	for _, w := range windows {
		if !metadataMatches(w.Metadata, meta) {
			continue
		}
		if bbox != nil && !w.Shape.Intersects(*bbox) {
			continue
		}
		result = append(result, w)
	}
	return result
}

func metadataMatches(m Metadata, want map[string]string) bool {
	for k, v := range want {
		got, ok := m[k]
		if !ok {
			return false
		}
		if !strings.EqualFold(fmt.Sprint(got), v) {
			return false
		}
	}
	return true
}

// ParseMetaPairs parses "key=value" strings into a map.
func ParseMetaPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid metadata pair %q: expected key=value", p)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

// boundsIntersect checks if two [x, y, width, height] rectangles overlap.
func boundsIntersect(a, b [4]int) bool {
	ax1, ay1, ax2, ay2 := a[0], a[1], a[0]+a[2], a[1]+a[3]
	bx1, by1, bx2, by2 := b[0], b[1], b[0]+b[2], b[1]+b[3]
	return ax1 < bx2 && ax2 > bx1 && ay1 < by2 && ay2 > by1
}
