package binarizer

import (
	"qrlocate"
	"qrlocate/bitutil"
)

const (
	luminanceBits    = 5
	luminanceShift   = 8 - luminanceBits
	luminanceBuckets = 1 << luminanceBits
)

// GlobalHistogram binarizes an image with a single black point estimated
// from a luminance histogram sampled across the middle of the image.
type GlobalHistogram struct {
	source LuminanceSource
}

// NewGlobalHistogram creates a GlobalHistogram binarizer over source.
func NewGlobalHistogram(source LuminanceSource) *GlobalHistogram {
	return &GlobalHistogram{source: source}
}

// Width returns the image width.
func (g *GlobalHistogram) Width() int { return g.source.Width() }

// Height returns the image height.
func (g *GlobalHistogram) Height() int { return g.source.Height() }

// BlackMatrix thresholds the whole image against the estimated black
// point. It returns ErrNotFound when the histogram is too flat to expose
// two distinct luminance peaks.
func (g *GlobalHistogram) BlackMatrix() (*bitutil.BitMatrix, error) {
	width := g.source.Width()
	height := g.source.Height()

	// Sample four interior rows, skipping the outer fifth on each side,
	// to build the histogram without paying for every pixel.
	var buckets [luminanceBuckets]int
	row := make([]byte, width)
	for y := 1; y < 5; y++ {
		localRow := g.source.Row(height*y/5, row)
		right := (width * 4) / 5
		for x := width / 5; x < right; x++ {
			buckets[localRow[x]>>luminanceShift]++
		}
	}
	blackPoint, err := estimateBlackPoint(buckets[:])
	if err != nil {
		return nil, err
	}

	matrix := bitutil.New(width, height)
	luminances := g.source.Matrix()
	for y := 0; y < height; y++ {
		offset := y * width
		for x := 0; x < width; x++ {
			if int(luminances[offset+x]) < blackPoint {
				matrix.Set(x, y)
			}
		}
	}
	return matrix, nil
}

// estimateBlackPoint finds the valley between the two dominant luminance
// peaks. The black point sits at the deepest bucket between them, scored
// toward the darker peak.
func estimateBlackPoint(buckets []int) (int, error) {
	numBuckets := len(buckets)
	maxBucketCount := 0
	firstPeak := 0
	firstPeakSize := 0
	for x, count := range buckets {
		if count > firstPeakSize {
			firstPeak = x
			firstPeakSize = count
		}
		if count > maxBucketCount {
			maxBucketCount = count
		}
	}

	secondPeak := 0
	secondPeakScore := 0
	for x, count := range buckets {
		dist := x - firstPeak
		if score := count * dist * dist; score > secondPeakScore {
			secondPeak = x
			secondPeakScore = score
		}
	}

	if firstPeak > secondPeak {
		firstPeak, secondPeak = secondPeak, firstPeak
	}
	if secondPeak-firstPeak <= numBuckets/16 {
		return 0, qrlocate.ErrNotFound
	}

	bestValley := secondPeak - 1
	bestValleyScore := -1
	for x := secondPeak - 1; x > firstPeak; x-- {
		fromFirst := x - firstPeak
		score := fromFirst * fromFirst * (secondPeak - x) * (maxBucketCount - buckets[x])
		if score > bestValleyScore {
			bestValley = x
			bestValleyScore = score
		}
	}
	return bestValley << luminanceShift, nil
}
