// Package locator selects, disambiguates, and geometrically labels
// pattern candidates to produce the four reference points of a symbol.
package locator

import (
	"math"
	"sort"

	"qrlocate"
	"qrlocate/bitutil"
	"qrlocate/pattern"
)

// The three constants encode geometric assumptions about the symbol
// family and are not tunable.
const (
	// minPatternDist is the minimum pixel distance between two accepted
	// finder patterns; closer candidates are duplicates of one detection.
	minPatternDist = 50

	// alignmentToFinderRatio relates the apparent size of an alignment
	// pattern (five modules) to that of a finder pattern (seven).
	alignmentToFinderRatio = 5.0 / 7.0

	// maxSizeRatio caps how much an accepted candidate's size may differ
	// from the first accepted (most trusted) candidate's size.
	maxSizeRatio = 5.0
)

// FinderSource proposes finder-pattern candidates for a matrix.
type FinderSource func(m *bitutil.BitMatrix) []qrlocate.Candidate

// AlignmentSource proposes alignment-pattern candidates inside the
// window bounded by windowStart and windowEnd.
type AlignmentSource func(m *bitutil.BitMatrix, windowStart, windowEnd qrlocate.Point) []qrlocate.Candidate

// Locator locates the reference geometry of a symbol in a binary matrix.
// A Locator holds no per-call state and is safe for concurrent use.
type Locator struct {
	finder    FinderSource
	alignment AlignmentSource
}

// New creates a Locator backed by the pattern package's scanners.
func New() *Locator {
	return NewWithSources(pattern.FindFinderCandidates, pattern.FindAlignmentCandidates)
}

// NewWithSources creates a Locator with custom candidate sources.
func NewWithSources(finder FinderSource, alignment AlignmentSource) *Locator {
	return &Locator{finder: finder, alignment: alignment}
}

// Locate finds the three finder-pattern corners and the alignment corner
// of a symbol. It returns ErrInsufficientPatterns when three mutually
// distinct, size-consistent finder patterns cannot be assembled; a
// missing alignment pattern is not an error, the predicted corner is
// used instead.
func (l *Locator) Locate(m *bitutil.BitMatrix) (*qrlocate.PatternsLocation, error) {
	accepted, err := selectCandidates(l.finder(m))
	if err != nil {
		return nil, err
	}

	bottomLeft, topRight, topLeft := assignCorners(
		accepted[0].Location, accepted[1].Location, accepted[2].Location)

	loc := &qrlocate.PatternsLocation{
		TopLeft:           topLeft,
		TopRight:          topRight,
		BottomLeft:        bottomLeft,
		FinderAverageSize: (accepted[0].Size + accepted[1].Size + accepted[2].Size) / 3.0,
	}
	loc.AlignmentSize = loc.FinderAverageSize * alignmentToFinderRatio

	l.estimateAlignment(m, loc)
	return loc, nil
}

// selectCandidates picks the three lowest-error candidates that are
// pairwise distinct and size-compatible. The size reference is always
// the first accepted candidate, the lowest-error and therefore most
// trusted one, not the most recently accepted.
func selectCandidates(candidates []qrlocate.Candidate) ([]qrlocate.Candidate, error) {
	ordered := make([]qrlocate.Candidate, len(candidates))
	copy(ordered, candidates)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Error < ordered[j].Error })

	accepted := make([]qrlocate.Candidate, 0, 3)
	for _, c := range ordered {
		if len(accepted) == 3 {
			break
		}
		if tooClose(c, accepted) {
			continue
		}
		if len(accepted) > 0 && !sizesCompatible(c.Size, accepted[0].Size) {
			continue
		}
		accepted = append(accepted, c)
	}
	if len(accepted) < 3 {
		return nil, qrlocate.ErrInsufficientPatterns
	}
	return accepted, nil
}

func tooClose(c qrlocate.Candidate, accepted []qrlocate.Candidate) bool {
	for _, a := range accepted {
		if qrlocate.NearlySame(c.Location, a.Location, minPatternDist) {
			return true
		}
	}
	return false
}

func sizesCompatible(size, refSize float64) bool {
	lo, hi := size, refSize
	if lo > hi {
		lo, hi = hi, lo
	}
	return hi <= maxSizeRatio*lo
}

// assignCorners labels three unordered finder centers. The pair with the
// strictly greatest squared distance is the bottom-left/top-right
// diagonal (ties keep the input order); the cross product of the
// diagonal with the vector to the remaining point fixes a mirrored
// assignment. The result does not depend on the input order.
func assignCorners(p0, p1, p2 qrlocate.Point) (bottomLeft, topRight, topLeft qrlocate.Point) {
	d01 := qrlocate.SquaredDistance(p0, p1)
	d02 := qrlocate.SquaredDistance(p0, p2)
	d12 := qrlocate.SquaredDistance(p1, p2)

	a, b, c := p0, p1, p2
	switch {
	case d02 > d01 && d02 > d12:
		a, b, c = p0, p2, p1
	case d12 > d01 && d12 > d02:
		a, b, c = p1, p2, p0
	}

	// A positive cross product means c sits to the right of the directed
	// line a->b, so the diagonal endpoints are mirrored.
	if qrlocate.CrossProduct(qrlocate.VectorBetween(a, b), qrlocate.VectorBetween(a, c)) > 0 {
		a, b = b, a
	}
	return a, b, c
}

// estimateAlignment predicts the bottom-right corner by parallelogram
// completion, searches a bounded window around the prediction, and
// adopts the lowest-error alignment hit when there is one.
func (l *Locator) estimateAlignment(m *bitutil.BitMatrix, loc *qrlocate.PatternsLocation) {
	predicted := qrlocate.Point{
		X: loc.TopRight.X - loc.TopLeft.X + loc.BottomLeft.X,
		Y: loc.TopRight.Y - loc.TopLeft.Y + loc.BottomLeft.Y,
	}
	loc.BottomRight = predicted

	// One grid-spacing unit per axis, approximated from the two sides
	// running along that axis.
	averageXDistance := math.Floor(
		(math.Abs(predicted.X-loc.BottomLeft.X) + math.Abs(loc.TopRight.X-loc.TopLeft.X)) / 2)
	averageYDistance := math.Floor(
		(math.Abs(predicted.Y-loc.TopRight.Y) + math.Abs(loc.BottomLeft.Y-loc.TopLeft.Y)) / 2)

	windowStart := qrlocate.Point{
		X: math.Max(0, predicted.X-averageXDistance/2),
		Y: math.Max(0, predicted.Y-averageYDistance/2),
	}
	windowEnd := qrlocate.Point{
		X: math.Min(float64(m.Width()), predicted.X+averageXDistance/2),
		Y: math.Min(float64(m.Height()), predicted.Y+averageYDistance/2),
	}

	hits := l.alignment(m, windowStart, windowEnd)
	if len(hits) == 0 {
		return
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Error < hits[j].Error })
	loc.BottomRight = hits[0].Location
}
