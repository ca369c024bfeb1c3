// Package transform rectifies a located symbol: a perspective transform
// estimated from the four reference points, and a grid sampler that reads
// one bit per module through it.
package transform

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"qrlocate"
)

// PerspectiveTransform maps source-plane (module) coordinates to image
// coordinates through a homography with the bottom-right element fixed
// to 1.
type PerspectiveTransform struct {
	h11, h12, h13 float64
	h21, h22, h23 float64
	h31, h32      float64
}

// QuadToQuad estimates the homography taking the four source points to
// the four target points by solving the eight-equation correspondence
// system. It fails when the correspondences are degenerate, e.g. three
// collinear source points.
func QuadToQuad(source, target [4]qrlocate.Point) (*PerspectiveTransform, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := source[i].X, source[i].Y
		u, v := target[i].X, target[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("transform: degenerate correspondences: %w", err)
	}
	return &PerspectiveTransform{
		h11: h.AtVec(0), h12: h.AtVec(1), h13: h.AtVec(2),
		h21: h.AtVec(3), h22: h.AtVec(4), h23: h.AtVec(5),
		h31: h.AtVec(6), h32: h.AtVec(7),
	}, nil
}

// Apply maps a single source point to image coordinates.
func (t *PerspectiveTransform) Apply(p qrlocate.Point) qrlocate.Point {
	denominator := t.h31*p.X + t.h32*p.Y + 1
	return qrlocate.Point{
		X: (t.h11*p.X + t.h12*p.Y + t.h13) / denominator,
		Y: (t.h21*p.X + t.h22*p.Y + t.h23) / denominator,
	}
}

// TransformPoints maps interleaved [x0, y0, x1, y1, ...] coordinate
// pairs in place.
func (t *PerspectiveTransform) TransformPoints(points []float64) {
	for i := 0; i+1 < len(points); i += 2 {
		x := points[i]
		y := points[i+1]
		denominator := t.h31*x + t.h32*y + 1
		points[i] = (t.h11*x + t.h12*y + t.h13) / denominator
		points[i+1] = (t.h21*x + t.h22*y + t.h23) / denominator
	}
}
