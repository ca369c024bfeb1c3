package locator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"qrlocate"
	"qrlocate/bitutil"
)

var finderModules = [7]string{
	"1111111",
	"1000001",
	"1011101",
	"1011101",
	"1011101",
	"1000001",
	"1111111",
}

var alignmentModules = [5]string{
	"11111",
	"10001",
	"10101",
	"10001",
	"11111",
}

func drawModules(m *bitutil.BitMatrix, left, top, scale int, rows []string) {
	for my, row := range rows {
		for mx := 0; mx < len(row); mx++ {
			if row[mx] == '1' {
				m.SetRegion(left+mx*scale, top+my*scale, scale, scale)
			}
		}
	}
}

// drawSymbol renders a dimension x dimension module symbol with the three
// finder patterns, an optional centered alignment pattern, and a quiet
// margin, at the given module scale.
func drawSymbol(dimension, scale, margin int, alignment bool) *bitutil.BitMatrix {
	m := bitutil.NewSquare(dimension*scale + 2*margin)
	drawModules(m, margin, margin, scale, finderModules[:])
	drawModules(m, margin+(dimension-7)*scale, margin, scale, finderModules[:])
	drawModules(m, margin, margin+(dimension-7)*scale, scale, finderModules[:])
	if alignment {
		drawModules(m, margin+(dimension-9)*scale, margin+(dimension-9)*scale, scale, alignmentModules[:])
	}
	return m
}

func TestLocateAndSampleWithoutAlignment(t *testing.T) {
	m := drawSymbol(21, 4, 8, false)

	loc, err := New().Locate(m)
	require.NoError(t, err)
	require.InDelta(t, 22, loc.TopLeft.X, 0.5)
	require.InDelta(t, 22, loc.TopLeft.Y, 0.5)
	require.InDelta(t, 78, loc.TopRight.X, 0.5)
	require.InDelta(t, 22, loc.TopRight.Y, 0.5)
	require.InDelta(t, 22, loc.BottomLeft.X, 0.5)
	require.InDelta(t, 78, loc.BottomLeft.Y, 0.5)
	require.InDelta(t, 28, loc.FinderAverageSize, 0.5)
	require.InDelta(t, 20, loc.AlignmentSize, 0.5)

	// No alignment pattern drawn: the corner is the prediction.
	predicted := qrlocate.Point{
		X: loc.TopRight.X - loc.TopLeft.X + loc.BottomLeft.X,
		Y: loc.TopRight.Y - loc.TopLeft.Y + loc.BottomLeft.Y,
	}
	require.Equal(t, predicted, loc.BottomRight)

	bits, err := SampleSymbol(m, loc)
	require.NoError(t, err)
	require.Equal(t, 21, bits.Width())
	require.True(t, bits.Get(0, 0), "finder corner module should be black")
	require.True(t, bits.Get(3, 3), "finder center module should be black")
	require.False(t, bits.Get(1, 1), "finder ring interior should be white")
	require.True(t, bits.Get(20, 0), "top-right finder corner should be black")
	require.False(t, bits.Get(20, 20), "empty bottom-right corner should be white")
}

func TestLocateAndSampleWithAlignment(t *testing.T) {
	m := drawSymbol(25, 4, 8, true)

	loc, err := New().Locate(m)
	require.NoError(t, err)
	require.InDelta(t, 82, loc.BottomRight.X, 0.75, "alignment center should refine the corner")
	require.InDelta(t, 82, loc.BottomRight.Y, 0.75)

	bits, err := SampleSymbol(m, loc)
	require.NoError(t, err)
	require.Equal(t, 25, bits.Width())
	require.True(t, bits.Get(18, 18), "alignment center dot should be black")
	require.False(t, bits.Get(12, 12), "empty interior should be white")
	require.True(t, bits.Get(0, 24), "bottom-left finder corner should be black")
}

func TestSampleRejectsTinyModules(t *testing.T) {
	m := bitutil.New(30, 30)
	loc := &qrlocate.PatternsLocation{
		TopLeft:           qrlocate.Point{X: 2, Y: 2},
		TopRight:          qrlocate.Point{X: 8, Y: 2},
		BottomLeft:        qrlocate.Point{X: 2, Y: 8},
		BottomRight:       qrlocate.Point{X: 8, Y: 8},
		FinderAverageSize: 3, // under a pixel per module
	}
	_, err := SampleSymbol(m, loc)
	require.ErrorIs(t, err, qrlocate.ErrNotFound)
}

func TestEstimateDimensionSnapsToGrid(t *testing.T) {
	loc := &qrlocate.PatternsLocation{
		TopLeft:    qrlocate.Point{X: 22, Y: 22},
		TopRight:   qrlocate.Point{X: 78, Y: 22},
		BottomLeft: qrlocate.Point{X: 22, Y: 78},
	}
	dimension, err := estimateDimension(loc, 4)
	require.NoError(t, err)
	require.Equal(t, 21, dimension)
}
