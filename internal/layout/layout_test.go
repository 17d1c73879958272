package layout

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/mj1618/winsync/internal/model"
	"github.com/stretchr/testify/require"
)

func roster() model.Roster {
	return model.Roster{
		{ID: "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b", Shape: model.Shape{X: 0, Y: 0, W: 800, H: 600}},
		{ID: "peer", Shape: model.Shape{X: 1000, Y: 200, W: 400, H: 400}},
	}
}

func TestExtent(t *testing.T) {
	ext, ok := Extent(roster())
	require.True(t, ok)
	require.Equal(t, model.Shape{X: 0, Y: 0, W: 1400, H: 600}, ext)

	_, ok = Extent(nil)
	require.False(t, ok)
}

func TestExtent_NegativeOrigin(t *testing.T) {
	ext, ok := Extent(model.Roster{
		{ID: "a", Shape: model.Shape{X: -100, Y: -50, W: 100, H: 50}},
		{ID: "b", Shape: model.Shape{X: 0, Y: 0, W: 10, H: 10}},
	})
	require.True(t, ok)
	require.Equal(t, model.Shape{X: -100, Y: -50, W: 110, H: 60}, ext)
}

func TestRender_Size(t *testing.T) {
	img, err := Render(roster(), Options{Scale: 0.1, Padding: 5})
	require.NoError(t, err)
	require.Equal(t, 140+10+1, img.Bounds().Dx())
	require.Equal(t, 60+10+1, img.Bounds().Dy())
}

func TestRender_DrawsOutlines(t *testing.T) {
	img, err := Render(roster(), Options{Scale: 0.1, Label: LabelNone})
	require.NoError(t, err)

	// Top-left corner of the first window carries its palette color.
	require.Equal(t, palette[0], img.RGBAAt(0, 0))
	// Top-left corner of the second window.
	require.Equal(t, palette[1], img.RGBAAt(100, 20))
	// Far from any window the background shows.
	require.Equal(t, background, img.RGBAAt(90, 55))
}

func TestRender_Empty(t *testing.T) {
	_, err := Render(model.Roster{}, Options{})
	require.ErrorIs(t, err, ErrEmptyRoster)
}

func TestRender_TooLarge(t *testing.T) {
	_, err := Render(model.Roster{{ID: "huge", Shape: model.Shape{W: 100000, H: 10}}}, Options{Scale: 1})
	require.ErrorContains(t, err, "exceeds")
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	bounds, err := WritePNG(&buf, roster(), Options{Label: LabelIDs})
	require.NoError(t, err)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, bounds, img.Bounds())
}

func TestLabelFor(t *testing.T) {
	w := roster()[0]
	require.Equal(t, "[0190a1b2]", labelFor(w, LabelIDs))
	require.Equal(t, "(400,300)", labelFor(w, LabelCoords))
	require.Empty(t, labelFor(w, LabelNone))
	require.Equal(t, "[peer]", labelFor(roster()[1], LabelIDs))
}

func TestParseLabelMode(t *testing.T) {
	for in, want := range map[string]LabelMode{"": LabelIDs, "ids": LabelIDs, "coords": LabelCoords, "none": LabelNone} {
		got, err := ParseLabelMode(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseLabelMode("names")
	require.Error(t, err)
}
