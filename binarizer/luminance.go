// Package binarizer converts images to the binary matrices the locate
// pipeline scans. Luminance conversion and thresholding are collaborators
// of the locator, not part of it; they live here so the repository runs
// end to end from a decoded image file.
package binarizer

import "image"

// LuminanceSource provides access to greyscale luminance values.
type LuminanceSource interface {
	// Row returns one row of luminance data. If row is non-nil and large
	// enough it is reused.
	Row(y int, row []byte) []byte

	// Matrix returns the full luminance plane in row-major order.
	Matrix() []byte

	Width() int
	Height() int
}

// ImageSource is a LuminanceSource backed by a Go image.Image, converted
// to greyscale once at construction.
type ImageSource struct {
	luminances []byte
	width      int
	height     int
}

// NewImageSource converts img to luminance values using the
// (306*R + 601*G + 117*B + 0x200) >> 10 weighting on 8-bit components.
// Fully transparent pixels are treated as white.
func NewImageSource(img image.Image) *ImageSource {
	if gray, ok := img.(*image.Gray); ok {
		return newGraySource(gray)
	}
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	luminances := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			if a == 0 {
				luminances[y*w+x] = 0xFF
				continue
			}
			luminances[y*w+x] = byte((306*(r>>8) + 601*(g>>8) + 117*(b>>8) + 0x200) >> 10)
		}
	}
	return &ImageSource{luminances: luminances, width: w, height: h}
}

func newGraySource(img *image.Gray) *ImageSource {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	luminances := make([]byte, w*h)
	for y := 0; y < h; y++ {
		srcOff := (bounds.Min.Y+y)*img.Stride + bounds.Min.X
		copy(luminances[y*w:(y+1)*w], img.Pix[srcOff:srcOff+w])
	}
	return &ImageSource{luminances: luminances, width: w, height: h}
}

// Row returns one row of luminance data.
func (s *ImageSource) Row(y int, row []byte) []byte {
	if y < 0 || y >= s.height {
		return nil
	}
	if len(row) < s.width {
		row = make([]byte, s.width)
	}
	copy(row, s.luminances[y*s.width:(y+1)*s.width])
	return row
}

// Matrix returns a copy of the full luminance plane.
func (s *ImageSource) Matrix() []byte {
	result := make([]byte, len(s.luminances))
	copy(result, s.luminances)
	return result
}

// Width returns the width of the image.
func (s *ImageSource) Width() int { return s.width }

// Height returns the height of the image.
func (s *ImageSource) Height() int { return s.height }
