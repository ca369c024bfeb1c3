package transform

import (
	"qrlocate"
	"qrlocate/bitutil"
)

// SampleGrid reads a dimensionX x dimensionY grid of module bits out of
// image, probing each module at its center through the transform. It
// returns ErrNotFound when the transformed grid leaves the image.
func SampleGrid(image *bitutil.BitMatrix, dimensionX, dimensionY int, t *PerspectiveTransform) (*bitutil.BitMatrix, error) {
	if dimensionX <= 0 || dimensionY <= 0 {
		return nil, qrlocate.ErrNotFound
	}
	bits := bitutil.New(dimensionX, dimensionY)
	points := make([]float64, 2*dimensionX)
	for y := 0; y < dimensionY; y++ {
		rowY := float64(y) + 0.5
		for i := 0; i < len(points); i += 2 {
			points[i] = float64(i/2) + 0.5
			points[i+1] = rowY
		}
		t.TransformPoints(points)
		if err := nudgeIntoBounds(image, points); err != nil {
			return nil, err
		}
		for i := 0; i < len(points); i += 2 {
			px := int(points[i])
			py := int(points[i+1])
			if px < 0 || px >= image.Width() || py < 0 || py >= image.Height() {
				return nil, qrlocate.ErrNotFound
			}
			if image.Get(px, py) {
				bits.Set(i/2, y)
			}
		}
	}
	return bits, nil
}

// nudgeIntoBounds pulls transformed points that are barely outside the
// image, by less than a pixel at either end of the row, back onto the
// border. Anything further out fails the sample.
func nudgeIntoBounds(image *bitutil.BitMatrix, points []float64) error {
	for _, start := range []bool{true, false} {
		nudged := true
		for offset := 0; offset+1 < len(points) && nudged; offset += 2 {
			i := offset
			if !start {
				i = len(points) - 2 - offset
			}
			var err error
			nudged, err = nudgePoint(image, points, i)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func nudgePoint(image *bitutil.BitMatrix, points []float64, i int) (bool, error) {
	width := image.Width()
	height := image.Height()
	x := int(points[i])
	y := int(points[i+1])
	if x < -1 || x > width || y < -1 || y > height {
		return false, qrlocate.ErrNotFound
	}
	nudged := false
	switch x {
	case -1:
		points[i] = 0
		nudged = true
	case width:
		points[i] = float64(width - 1)
		nudged = true
	}
	switch y {
	case -1:
		points[i+1] = 0
		nudged = true
	case height:
		points[i+1] = float64(height - 1)
		nudged = true
	}
	return nudged, nil
}
