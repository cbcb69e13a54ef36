package detection

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDetections(t *testing.T) {
	tests := []struct {
		name string
		dets []GlyphDetection
		ok   bool
	}{
		{"empty", nil, true},
		{"reference", ReferenceDetections(), true},
		{"bounds inclusive", []GlyphDetection{{Symbol: "a", Confidence: 0}, {Symbol: "b", Confidence: 1}}, true},
		{"above one", []GlyphDetection{{Symbol: "a", Confidence: 1.01}}, false},
		{"negative", []GlyphDetection{{Symbol: "a", Confidence: -0.1}}, false},
		{"nan", []GlyphDetection{{Symbol: "a", Confidence: math.NaN()}}, false},
		{"empty symbol", []GlyphDetection{{Symbol: "", Confidence: 0.5}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDetections(tt.dets)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrDetectionUnavailable)
			}
		})
	}
}

func TestStubDetector_ReturnsCopy(t *testing.T) {
	pos := Bounds{X1: 1, Y1: 2, X2: 3, Y2: 4}
	d := NewStubDetector(GlyphDetection{Symbol: "𑀅", Confidence: 0.5, Position: &pos})

	first, err := d.Detect(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, first, 1)
	first[0].Symbol = "x"
	first[0].Position.X1 = 99

	second, err := d.Detect(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "𑀅", second[0].Symbol)
	assert.Equal(t, 1, second[0].Position.X1)
}

func TestStubDetector_Empty(t *testing.T) {
	dets, err := NewStubDetector().Detect(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, dets)
}

func TestStubDetector_Unavailable(t *testing.T) {
	_, err := NewUnavailableDetector("model not installed").Detect(context.Background(), nil)
	require.ErrorIs(t, err, ErrDetectionUnavailable)
	assert.Contains(t, err.Error(), "model not installed")
}

func TestStubDetector_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewStubDetector(ReferenceDetections()...).Detect(ctx, nil)
	require.ErrorIs(t, err, ErrDetectionUnavailable)
}

func TestDecodeDetections(t *testing.T) {
	in := `[{"symbol":"𑀅","confidence":0.95},{"symbol":"𑀓","confidence":0.92,"position":{"x1":10,"y1":0,"x2":20,"y2":8}}]`
	dets, err := DecodeDetections(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, dets, 2)
	assert.Nil(t, dets[0].Position)
	require.NotNil(t, dets[1].Position)
	assert.Equal(t, 10, dets[1].Position.Width())

	_, err = DecodeDetections(strings.NewReader(`[{"symbol":"a","confidence":2}]`))
	assert.ErrorIs(t, err, ErrDetectionUnavailable)

	_, err = DecodeDetections(strings.NewReader(`{"symbol":"a"}`))
	assert.Error(t, err)
}

func TestSortReadingOrder(t *testing.T) {
	at := func(x int) *Bounds { return &Bounds{X1: x, X2: x + 5, Y2: 5} }

	dets := []GlyphDetection{
		{Symbol: "c", Position: at(30)},
		{Symbol: "a", Position: at(0)},
		{Symbol: "b", Position: at(12)},
	}
	SortReadingOrder(dets)
	assert.Equal(t, []string{"a", "b", "c"}, Symbols(dets))

	// Without positions the detector order stands.
	partial := []GlyphDetection{{Symbol: "z", Position: at(50)}, {Symbol: "y"}}
	SortReadingOrder(partial)
	assert.Equal(t, []string{"z", "y"}, Symbols(partial))
}

func TestBounds(t *testing.T) {
	b := Bounds{X1: 2, Y1: 3, X2: 7, Y2: 11}
	assert.Equal(t, 5, b.Width())
	assert.Equal(t, 8, b.Height())
	assert.Equal(t, 40, b.Area())
	assert.Equal(t, b, BoundsFromRect(b.Rect()))
	assert.Equal(t, Bounds{X1: 1, Y1: 1, X2: 4, Y2: 6}, b.Scale(0.5))
	assert.Equal(t, b, b.Scale(1))
}

func TestBoxes(t *testing.T) {
	b := Bounds{X1: 1, Y1: 1, X2: 2, Y2: 2}
	boxes := Boxes([]GlyphDetection{{Symbol: "a", Position: &b}, {Symbol: "b"}})
	require.Len(t, boxes, 1)
	assert.Equal(t, b.Rect(), boxes[0])
}
