// Package pattern proposes finder- and alignment-pattern candidates from
// a binary matrix. Each proposal carries a location, an estimated module
// size, and an error score; ranking and geometric consistency are the
// locator's concern, not this package's.
package pattern

import (
	"qrlocate"
	"qrlocate/bitutil"
)

// finderCenter accumulates confirming scanline detections of one center.
type finderCenter struct {
	x, y      float64
	size      float64
	deviation float64
	count     int
}

// FindFinderCandidates scans the matrix for the 1:1:3:1:1 black/white run
// profile of a finder pattern and returns one candidate per distinct
// center. Candidate sizes are the apparent width of the whole pattern in
// pixels; candidates confirmed by more scanlines score a lower error.
func FindFinderCandidates(m *bitutil.BitMatrix) []qrlocate.Candidate {
	width := m.Width()
	height := m.Height()

	// Scanning every third row is enough to hit the 3-module core of any
	// finder pattern large enough to decode.
	skip := (3 * height) / (4 * 97)
	if skip < 3 {
		skip = 3
	}

	var centers []*finderCenter
	for y := skip - 1; y < height; y += skip {
		var stateCount [5]int
		state := 0
		for x := 0; x < width; x++ {
			if m.Get(x, y) {
				if state&1 == 1 { // was counting white
					state++
				}
				stateCount[state]++
				continue
			}
			if state&1 == 1 { // counting white already
				stateCount[state]++
				continue
			}
			if state == 0 && stateCount[0] == 0 {
				continue // leading white margin
			}
			if state == 4 {
				if isFinderRun(stateCount) {
					registerFinderCenter(m, &centers, stateCount, x, y)
				}
				// Slide the window by two runs and keep scanning.
				stateCount[0], stateCount[1], stateCount[2] = stateCount[2], stateCount[3], stateCount[4]
				stateCount[3], stateCount[4] = 1, 0
				state = 3
				continue
			}
			state++
			stateCount[state]++
		}
		if state == 4 && isFinderRun(stateCount) {
			registerFinderCenter(m, &centers, stateCount, width, y)
		}
	}

	candidates := make([]qrlocate.Candidate, 0, len(centers))
	for _, c := range centers {
		candidates = append(candidates, qrlocate.Candidate{
			Location: qrlocate.Point{X: c.x, Y: c.y},
			Size:     c.size,
			Error:    c.deviation / float64(c.count),
		})
	}
	return candidates
}

// isFinderRun reports whether the five run lengths fit the 1:1:3:1:1
// profile within half a module of tolerance per run.
func isFinderRun(stateCount [5]int) bool {
	total := 0
	for _, count := range stateCount {
		if count == 0 {
			return false
		}
		total += count
	}
	if total < 7 {
		return false
	}
	moduleSize := float64(total) / 7.0
	maxVariance := moduleSize / 2.0
	for i, ideal := range finderProfile {
		if absFloat(float64(stateCount[i])-ideal*moduleSize) >= ideal*maxVariance {
			return false
		}
	}
	return true
}

var finderProfile = [5]float64{1, 1, 3, 1, 1}

// finderDeviation is the summed distance of the runs from the ideal
// profile as a fraction of the total run length. Zero is a perfect hit.
func finderDeviation(stateCount [5]int) float64 {
	total := 0
	for _, count := range stateCount {
		total += count
	}
	moduleSize := float64(total) / 7.0
	deviation := 0.0
	for i, ideal := range finderProfile {
		deviation += absFloat(float64(stateCount[i]) - ideal*moduleSize)
	}
	return deviation / float64(total)
}

// registerFinderCenter cross-checks a horizontal hit ending at column x
// on row y, then merges it into a previously seen center or records a
// new one.
func registerFinderCenter(m *bitutil.BitMatrix, centers *[]*finderCenter, stateCount [5]int, x, y int) {
	total := stateCount[0] + stateCount[1] + stateCount[2] + stateCount[3] + stateCount[4]
	centerX := float64(x) - float64(stateCount[4]+stateCount[3]) - float64(stateCount[2])/2.0

	centerY, vertCount, ok := crossCheckVertical(m, y, int(centerX), stateCount[2], total)
	if !ok {
		return
	}

	size := float64(total)
	moduleSize := size / 7.0
	deviation := (finderDeviation(stateCount) + finderDeviation(vertCount)) / 2.0

	for _, c := range *centers {
		if absFloat(centerX-c.x) <= moduleSize && absFloat(centerY-c.y) <= moduleSize {
			n := float64(c.count)
			c.x = (n*c.x + centerX) / (n + 1)
			c.y = (n*c.y + centerY) / (n + 1)
			c.size = (n*c.size + size) / (n + 1)
			c.deviation = (n*c.deviation + deviation) / (n + 1)
			c.count++
			return
		}
	}
	*centers = append(*centers, &finderCenter{
		x: centerX, y: centerY, size: size, deviation: deviation, count: 1,
	})
}

// crossCheckVertical walks up and down from (centerX, startY) counting the
// same five runs vertically. It fails when any run overshoots maxCount or
// the vertical profile disagrees with the horizontal one.
func crossCheckVertical(m *bitutil.BitMatrix, startY, centerX, maxCount, originalTotal int) (float64, [5]int, bool) {
	var stateCount [5]int
	if centerX < 0 || centerX >= m.Width() {
		return 0, stateCount, false
	}
	maxY := m.Height()

	y := startY
	for y >= 0 && m.Get(centerX, y) {
		stateCount[2]++
		y--
	}
	if y < 0 {
		return 0, stateCount, false
	}
	for y >= 0 && !m.Get(centerX, y) && stateCount[1] <= maxCount {
		stateCount[1]++
		y--
	}
	if y < 0 || stateCount[1] > maxCount {
		return 0, stateCount, false
	}
	for y >= 0 && m.Get(centerX, y) && stateCount[0] <= maxCount {
		stateCount[0]++
		y--
	}
	if stateCount[0] > maxCount {
		return 0, stateCount, false
	}

	y = startY + 1
	for y < maxY && m.Get(centerX, y) {
		stateCount[2]++
		y++
	}
	if y == maxY {
		return 0, stateCount, false
	}
	for y < maxY && !m.Get(centerX, y) && stateCount[3] <= maxCount {
		stateCount[3]++
		y++
	}
	if y == maxY || stateCount[3] > maxCount {
		return 0, stateCount, false
	}
	for y < maxY && m.Get(centerX, y) && stateCount[4] <= maxCount {
		stateCount[4]++
		y++
	}
	if stateCount[4] > maxCount {
		return 0, stateCount, false
	}

	total := stateCount[0] + stateCount[1] + stateCount[2] + stateCount[3] + stateCount[4]
	if 5*abs(total-originalTotal) >= 2*originalTotal {
		return 0, stateCount, false
	}
	if !isFinderRun(stateCount) {
		return 0, stateCount, false
	}
	centerY := float64(y-stateCount[4]-stateCount[3]) - float64(stateCount[2])/2.0
	return centerY, stateCount, true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
