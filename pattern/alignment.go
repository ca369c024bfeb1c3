package pattern

import (
	"qrlocate"
	"qrlocate/bitutil"
)

// FindAlignmentCandidates scans the rectangular window bounded by
// windowStart (inclusive) and windowEnd (exclusive) for the 1:1:1:1:1
// black/white run profile that crosses the center dot of an alignment
// pattern. It returns every distinct center found inside the window; an
// empty result is an ordinary outcome, not a failure.
func FindAlignmentCandidates(m *bitutil.BitMatrix, windowStart, windowEnd qrlocate.Point) []qrlocate.Candidate {
	startX := clamp(int(windowStart.X), 0, m.Width())
	startY := clamp(int(windowStart.Y), 0, m.Height())
	endX := clamp(int(windowEnd.X), 0, m.Width())
	endY := clamp(int(windowEnd.Y), 0, m.Height())

	var candidates []qrlocate.Candidate
	for y := startY; y < endY; y++ {
		var stateCount [5]int
		state := 0
		for x := startX; x < endX; x++ {
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
				if isAlignmentRun(stateCount) {
					registerAlignmentCenter(m, &candidates, stateCount, x, y)
				}
				stateCount[0], stateCount[1], stateCount[2] = stateCount[2], stateCount[3], stateCount[4]
				stateCount[3], stateCount[4] = 1, 0
				state = 3
				continue
			}
			state++
			stateCount[state]++
		}
		if state == 4 && isAlignmentRun(stateCount) {
			registerAlignmentCenter(m, &candidates, stateCount, endX, y)
		}
	}
	return candidates
}

// isAlignmentRun reports whether the five runs are each within half a
// module of their common mean, the profile of a row through the center
// dot of an alignment pattern.
func isAlignmentRun(stateCount [5]int) bool {
	total := 0
	for _, count := range stateCount {
		if count == 0 {
			return false
		}
		total += count
	}
	if total < 5 {
		return false
	}
	moduleSize := float64(total) / 5.0
	maxVariance := moduleSize / 2.0
	for _, count := range stateCount {
		if absFloat(float64(count)-moduleSize) >= maxVariance {
			return false
		}
	}
	return true
}

// alignmentDeviation is the summed distance of the runs from their mean
// as a fraction of the total, zero for a perfect hit.
func alignmentDeviation(stateCount [5]int) float64 {
	total := 0
	for _, count := range stateCount {
		total += count
	}
	moduleSize := float64(total) / 5.0
	deviation := 0.0
	for _, count := range stateCount {
		deviation += absFloat(float64(count) - moduleSize)
	}
	return deviation / float64(total)
}

// registerAlignmentCenter cross-checks a horizontal hit ending at column
// x on row y and merges it with any candidate already found for the same
// center, keeping the lower error.
func registerAlignmentCenter(m *bitutil.BitMatrix, candidates *[]qrlocate.Candidate, stateCount [5]int, x, y int) {
	total := stateCount[0] + stateCount[1] + stateCount[2] + stateCount[3] + stateCount[4]
	centerX := float64(x) - float64(stateCount[4]+stateCount[3]) - float64(stateCount[2])/2.0

	centerY, vertCount, ok := crossCheckVerticalAlignment(m, int(centerX), y, 2*stateCount[2], total)
	if !ok {
		return
	}
	vertTotal := vertCount[0] + vertCount[1] + vertCount[2] + vertCount[3] + vertCount[4]

	c := qrlocate.Candidate{
		Location: qrlocate.Point{X: centerX, Y: centerY},
		Size:     (float64(total) + float64(vertTotal)) / 2.0,
		Error:    (alignmentDeviation(stateCount) + alignmentDeviation(vertCount)) / 2.0,
	}

	moduleSize := c.Size / 5.0
	for i := range *candidates {
		if qrlocate.NearlySame((*candidates)[i].Location, c.Location, moduleSize) {
			if c.Error < (*candidates)[i].Error {
				(*candidates)[i] = c
			}
			return
		}
	}
	*candidates = append(*candidates, c)
}

// crossCheckVerticalAlignment walks up and down from (centerX, startY)
// counting the same five runs vertically.
func crossCheckVerticalAlignment(m *bitutil.BitMatrix, centerX, startY, maxCount, originalTotal int) (float64, [5]int, bool) {
	var stateCount [5]int
	if centerX < 0 || centerX >= m.Width() {
		return 0, stateCount, false
	}
	maxY := m.Height()

	y := startY
	for y >= 0 && m.Get(centerX, y) && stateCount[2] <= maxCount {
		stateCount[2]++
		y--
	}
	if y < 0 || stateCount[2] > maxCount {
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
	for y < maxY && m.Get(centerX, y) && stateCount[2] <= maxCount {
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
	if !isAlignmentRun(stateCount) {
		return 0, stateCount, false
	}
	centerY := float64(y-stateCount[4]-stateCount[3]) - float64(stateCount[2])/2.0
	return centerY, stateCount, true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
