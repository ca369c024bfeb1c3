package locator

import (
	"math"

	"qrlocate"
	"qrlocate/bitutil"
	"qrlocate/transform"
)

// SampleSymbol rectifies the symbol described by loc out of m, returning
// a square matrix with one bit per module. This is the downstream
// consumer of a PatternsLocation; decoding the sampled bits is outside
// this module.
func SampleSymbol(m *bitutil.BitMatrix, loc *qrlocate.PatternsLocation) (*bitutil.BitMatrix, error) {
	moduleSize := loc.FinderAverageSize / 7.0
	if moduleSize < 1.0 {
		return nil, qrlocate.ErrNotFound
	}
	dimension, err := estimateDimension(loc, moduleSize)
	if err != nil {
		return nil, err
	}

	dimMinusThree := float64(dimension) - 3.5
	source := [4]qrlocate.Point{
		{X: 3.5, Y: 3.5},
		{X: dimMinusThree, Y: 3.5},
		{X: 3.5, Y: dimMinusThree},
	}

	// A bottom-right corner that still coincides with the parallelogram
	// prediction was never refined; it maps to the symbol corner. A
	// refined one is the alignment-pattern center, three modules in.
	predicted := qrlocate.Point{
		X: loc.TopRight.X - loc.TopLeft.X + loc.BottomLeft.X,
		Y: loc.TopRight.Y - loc.TopLeft.Y + loc.BottomLeft.Y,
	}
	if loc.BottomRight == predicted {
		source[3] = qrlocate.Point{X: dimMinusThree, Y: dimMinusThree}
	} else {
		source[3] = qrlocate.Point{X: dimMinusThree - 3.0, Y: dimMinusThree - 3.0}
	}

	target := [4]qrlocate.Point{loc.TopLeft, loc.TopRight, loc.BottomLeft, loc.BottomRight}

	xform, err := transform.QuadToQuad(source, target)
	if err != nil {
		return nil, qrlocate.ErrNotFound
	}
	return transform.SampleGrid(m, dimension, dimension, xform)
}

// estimateDimension derives the symbol dimension from the spacing of the
// finder centers, snapped to the nearest valid grid (dimension ≡ 1 mod 4).
func estimateDimension(loc *qrlocate.PatternsLocation, moduleSize float64) (int, error) {
	tltr := math.Sqrt(qrlocate.SquaredDistance(loc.TopLeft, loc.TopRight))
	tlbl := math.Sqrt(qrlocate.SquaredDistance(loc.TopLeft, loc.BottomLeft))
	dimension := int(math.Round((tltr/moduleSize+tlbl/moduleSize)/2.0)) + 7
	switch dimension % 4 {
	case 0:
		dimension++
	case 2:
		dimension--
	case 3:
		return 0, qrlocate.ErrNotFound
	}
	return dimension, nil
}
