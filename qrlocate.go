// Package qrlocate locates the reference geometry of a QR-style matrix
// symbol in a binarized image: the three finder-pattern corners plus the
// alignment pattern near the fourth corner. The resulting four points feed
// a perspective rectification and sampling stage.
package qrlocate

// Point is a location in image space. The origin is at the top-left,
// with y increasing downward.
type Point struct {
	X, Y float64
}

// Candidate is a single detection proposal: a location, the apparent
// size of the detected pattern in pixels (a finder pattern spans seven
// modules, an alignment pattern five), and a non-negative error score
// where lower means a more confident detection.
type Candidate struct {
	Location Point
	Size     float64
	Error    float64
}

// PatternsLocation is the reference geometry of a located symbol.
// BottomRight is always populated: it is the best alignment-pattern
// detection when one was found, and the parallelogram completion of the
// three finder corners otherwise.
type PatternsLocation struct {
	TopLeft     Point
	TopRight    Point
	BottomLeft  Point
	BottomRight Point

	// FinderAverageSize is the mean apparent size of the three selected
	// finder patterns, in pixels.
	FinderAverageSize float64

	// AlignmentSize is the expected apparent size of the alignment
	// pattern, derived from FinderAverageSize.
	AlignmentSize float64
}

// SquaredDistance returns the squared Euclidean distance between a and b.
func SquaredDistance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// VectorBetween returns the vector pointing from a to b.
func VectorBetween(a, b Point) Point {
	return Point{X: b.X - a.X, Y: b.Y - a.Y}
}

// CrossProduct returns the z component of the cross product of the
// vectors u and v. In image coordinates a positive value means v points
// clockwise of u.
func CrossProduct(u, v Point) float64 {
	return u.X*v.Y - u.Y*v.X
}

// NearlySame reports whether p and q are less than threshold apart.
func NearlySame(p, q Point, threshold float64) bool {
	return SquaredDistance(p, q) < threshold*threshold
}
