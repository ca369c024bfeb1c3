package locator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"qrlocate"
	"qrlocate/bitutil"
)

func staticFinder(candidates ...qrlocate.Candidate) FinderSource {
	return func(*bitutil.BitMatrix) []qrlocate.Candidate { return candidates }
}

func staticAlignment(candidates ...qrlocate.Candidate) AlignmentSource {
	return func(*bitutil.BitMatrix, qrlocate.Point, qrlocate.Point) []qrlocate.Candidate {
		return candidates
	}
}

// wellSeparated is a finder trio whose corners are far beyond the minimum
// pattern distance: top-left (20,20), top-right (120,20), bottom-left
// (20,120).
func wellSeparated() []qrlocate.Candidate {
	return []qrlocate.Candidate{
		{Location: qrlocate.Point{X: 20, Y: 20}, Size: 7, Error: 0.1},
		{Location: qrlocate.Point{X: 120, Y: 20}, Size: 7, Error: 0.2},
		{Location: qrlocate.Point{X: 20, Y: 120}, Size: 7, Error: 0.3},
	}
}

func TestLocateLabelsCorners(t *testing.T) {
	m := bitutil.New(200, 200)
	loc, err := NewWithSources(staticFinder(wellSeparated()...), staticAlignment()).Locate(m)
	require.NoError(t, err)
	require.Equal(t, qrlocate.Point{X: 20, Y: 20}, loc.TopLeft)
	require.Equal(t, qrlocate.Point{X: 120, Y: 20}, loc.TopRight)
	require.Equal(t, qrlocate.Point{X: 20, Y: 120}, loc.BottomLeft)
}

func TestLocateOrderInvariant(t *testing.T) {
	m := bitutil.New(200, 200)
	trio := wellSeparated()
	permutations := [][3]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}

	reference, err := NewWithSources(staticFinder(trio...), staticAlignment()).Locate(m)
	require.NoError(t, err)

	for _, p := range permutations {
		permuted := []qrlocate.Candidate{trio[p[0]], trio[p[1]], trio[p[2]]}
		loc, err := NewWithSources(staticFinder(permuted...), staticAlignment()).Locate(m)
		require.NoError(t, err)
		require.Equal(t, reference.TopLeft, loc.TopLeft, "permutation %v", p)
		require.Equal(t, reference.TopRight, loc.TopRight, "permutation %v", p)
		require.Equal(t, reference.BottomLeft, loc.BottomLeft, "permutation %v", p)
	}
}

func TestAssignCornersTieKeepsInputOrder(t *testing.T) {
	// d(p0,p1) = d(p0,p2) = 100, no strictly greatest pair.
	p0 := qrlocate.Point{X: 0, Y: 0}
	p1 := qrlocate.Point{X: 6, Y: 8}
	p2 := qrlocate.Point{X: 10, Y: 0}

	bottomLeft, topRight, topLeft := assignCorners(p0, p1, p2)
	require.Equal(t, p0, bottomLeft)
	require.Equal(t, p1, topRight)
	require.Equal(t, p2, topLeft)
}

func TestSelectorRejectsNearbyDuplicate(t *testing.T) {
	m := bitutil.New(200, 200)
	candidates := []qrlocate.Candidate{
		{Location: qrlocate.Point{X: 20, Y: 20}, Size: 7, Error: 0.1},
		{Location: qrlocate.Point{X: 120, Y: 20}, Size: 7, Error: 0.2},
		// 30 px from the first: a duplicate detection, not a third corner.
		{Location: qrlocate.Point{X: 50, Y: 20}, Size: 7, Error: 0.3},
	}
	_, err := NewWithSources(staticFinder(candidates...), staticAlignment()).Locate(m)
	require.ErrorIs(t, err, qrlocate.ErrInsufficientPatterns)
}

func TestSelectorKeepsCandidatesExactlyMinDistApart(t *testing.T) {
	m := bitutil.New(200, 200)
	candidates := []qrlocate.Candidate{
		{Location: qrlocate.Point{X: 20, Y: 20}, Size: 7, Error: 0.1},
		{Location: qrlocate.Point{X: 70, Y: 20}, Size: 7, Error: 0.2}, // exactly 50 px
		{Location: qrlocate.Point{X: 20, Y: 120}, Size: 7, Error: 0.3},
	}
	_, err := NewWithSources(staticFinder(candidates...), staticAlignment()).Locate(m)
	require.NoError(t, err)
}

func TestSelectorRejectsIncompatibleSize(t *testing.T) {
	m := bitutil.New(200, 200)
	candidates := []qrlocate.Candidate{
		{Location: qrlocate.Point{X: 20, Y: 20}, Size: 7, Error: 0.1},
		{Location: qrlocate.Point{X: 120, Y: 20}, Size: 7, Error: 0.2},
		{Location: qrlocate.Point{X: 20, Y: 120}, Size: 50, Error: 0.3},
	}
	_, err := NewWithSources(staticFinder(candidates...), staticAlignment()).Locate(m)
	require.ErrorIs(t, err, qrlocate.ErrInsufficientPatterns)
}

func TestSelectorSkipsViolatorAndContinues(t *testing.T) {
	m := bitutil.New(200, 200)
	candidates := []qrlocate.Candidate{
		{Location: qrlocate.Point{X: 20, Y: 20}, Size: 7, Error: 0.1},
		{Location: qrlocate.Point{X: 120, Y: 20}, Size: 7, Error: 0.2},
		{Location: qrlocate.Point{X: 180, Y: 180}, Size: 50, Error: 0.3},
		{Location: qrlocate.Point{X: 20, Y: 120}, Size: 7, Error: 0.4},
	}
	loc, err := NewWithSources(staticFinder(candidates...), staticAlignment()).Locate(m)
	require.NoError(t, err)
	require.Equal(t, qrlocate.Point{X: 20, Y: 120}, loc.BottomLeft)
	require.InDelta(t, 7.0, loc.FinderAverageSize, 1e-9)
}

func TestSelectorSizeReferenceIsFirstAccepted(t *testing.T) {
	m := bitutil.New(200, 200)
	// 2 and 50 differ 25x from each other, but each is within 5x of the
	// first accepted size 10. The check deliberately compares against the
	// first accepted candidate only.
	candidates := []qrlocate.Candidate{
		{Location: qrlocate.Point{X: 20, Y: 20}, Size: 10, Error: 0.1},
		{Location: qrlocate.Point{X: 120, Y: 20}, Size: 2, Error: 0.2},
		{Location: qrlocate.Point{X: 20, Y: 120}, Size: 50, Error: 0.3},
	}
	loc, err := NewWithSources(staticFinder(candidates...), staticAlignment()).Locate(m)
	require.NoError(t, err)
	require.InDelta(t, (10.0+2.0+50.0)/3.0, loc.FinderAverageSize, 1e-9)
}

func TestLocateTwoCandidatesFail(t *testing.T) {
	m := bitutil.New(200, 200)
	candidates := []qrlocate.Candidate{
		{Location: qrlocate.Point{X: 20, Y: 20}, Size: 7, Error: 0.1},
		{Location: qrlocate.Point{X: 120, Y: 20}, Size: 7, Error: 0.2},
	}
	loc, err := NewWithSources(staticFinder(candidates...), staticAlignment()).Locate(m)
	require.ErrorIs(t, err, qrlocate.ErrInsufficientPatterns)
	require.Nil(t, loc)
}

func TestParallelogramPrediction(t *testing.T) {
	m := bitutil.New(20, 20)
	loc := &qrlocate.PatternsLocation{
		TopLeft:    qrlocate.Point{X: 0, Y: 0},
		TopRight:   qrlocate.Point{X: 10, Y: 0},
		BottomLeft: qrlocate.Point{X: 0, Y: 10},
	}
	l := &Locator{alignment: staticAlignment()}
	l.estimateAlignment(m, loc)
	require.Equal(t, qrlocate.Point{X: 10, Y: 10}, loc.BottomRight)
}

func TestAlignmentSizeDerivation(t *testing.T) {
	m := bitutil.New(200, 200)
	loc, err := NewWithSources(staticFinder(wellSeparated()...), staticAlignment()).Locate(m)
	require.NoError(t, err)
	require.Equal(t, 7.0, loc.FinderAverageSize)
	require.Equal(t, 5.0, loc.AlignmentSize)
}

func TestFallbackWhenNoAlignmentHit(t *testing.T) {
	m := bitutil.New(200, 200)
	loc, err := NewWithSources(staticFinder(wellSeparated()...), staticAlignment()).Locate(m)
	require.NoError(t, err)
	require.Equal(t, qrlocate.Point{X: 120, Y: 120}, loc.BottomRight)
}

func TestRefinementPicksLowestError(t *testing.T) {
	m := bitutil.New(200, 200)
	alignment := staticAlignment(
		qrlocate.Candidate{Location: qrlocate.Point{X: 118, Y: 119}, Size: 5, Error: 0.9},
		qrlocate.Candidate{Location: qrlocate.Point{X: 121, Y: 122}, Size: 5, Error: 0.1},
	)
	loc, err := NewWithSources(staticFinder(wellSeparated()...), alignment).Locate(m)
	require.NoError(t, err)
	require.Equal(t, qrlocate.Point{X: 121, Y: 122}, loc.BottomRight)
}

func TestAlignmentWindowBounds(t *testing.T) {
	m := bitutil.New(200, 200)
	var gotStart, gotEnd qrlocate.Point
	alignment := func(_ *bitutil.BitMatrix, windowStart, windowEnd qrlocate.Point) []qrlocate.Candidate {
		gotStart, gotEnd = windowStart, windowEnd
		return nil
	}
	_, err := NewWithSources(staticFinder(wellSeparated()...), alignment).Locate(m)
	require.NoError(t, err)

	// Predicted corner (120,120), grid spacing 100 per axis: the window
	// spans half a spacing on each side.
	require.Equal(t, qrlocate.Point{X: 70, Y: 70}, gotStart)
	require.Equal(t, qrlocate.Point{X: 170, Y: 170}, gotEnd)
}

func TestAlignmentWindowClampedToMatrix(t *testing.T) {
	m := bitutil.New(150, 150)
	var gotEnd qrlocate.Point
	alignment := func(_ *bitutil.BitMatrix, _, windowEnd qrlocate.Point) []qrlocate.Candidate {
		gotEnd = windowEnd
		return nil
	}
	_, err := NewWithSources(staticFinder(wellSeparated()...), alignment).Locate(m)
	require.NoError(t, err)
	require.Equal(t, qrlocate.Point{X: 150, Y: 150}, gotEnd)
}
