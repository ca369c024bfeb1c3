// Package bitutil provides a compact two-dimensional bit matrix used as
// the binarized image representation throughout the locate pipeline.
package bitutil

import "strings"

// BitMatrix is a 2D matrix of bits. x is the column and y the row, with
// the origin at the top-left. A set bit represents a black pixel.
type BitMatrix struct {
	width   int
	height  int
	rowSize int
	rows    []uint64
}

// New creates a BitMatrix with the given width and height, all bits unset.
func New(width, height int) *BitMatrix {
	if width < 1 || height < 1 {
		panic("bitutil: dimensions must be greater than 0")
	}
	rowSize := (width + 63) / 64
	return &BitMatrix{
		width:   width,
		height:  height,
		rowSize: rowSize,
		rows:    make([]uint64, rowSize*height),
	}
}

// NewSquare creates a square BitMatrix with the given dimension.
func NewSquare(dimension int) *BitMatrix {
	return New(dimension, dimension)
}

// Parse builds a BitMatrix from a multi-line string representation where
// set marks a set bit and unset an unset bit. Rows are separated by
// newlines and must all have the same length. It panics on malformed
// input; it is intended for fixtures and tooling, not untrusted data.
func Parse(repr string, set, unset byte) *BitMatrix {
	lines := strings.FieldsFunc(repr, func(r rune) bool { return r == '\n' || r == '\r' })
	if len(lines) == 0 {
		panic("bitutil: empty matrix representation")
	}
	m := New(len(lines[0]), len(lines))
	for y, line := range lines {
		if len(line) != m.width {
			panic("bitutil: row lengths do not match")
		}
		for x := 0; x < len(line); x++ {
			switch line[x] {
			case set:
				m.Set(x, y)
			case unset:
			default:
				panic("bitutil: illegal character encountered")
			}
		}
	}
	return m
}

// Width returns the width of the matrix.
func (m *BitMatrix) Width() int { return m.width }

// Height returns the height of the matrix.
func (m *BitMatrix) Height() int { return m.height }

// Get returns true if the bit at (x, y) is set.
func (m *BitMatrix) Get(x, y int) bool {
	return (m.rows[y*m.rowSize+x/64]>>uint(x&63))&1 != 0
}

// Set sets the bit at (x, y).
func (m *BitMatrix) Set(x, y int) {
	m.rows[y*m.rowSize+x/64] |= 1 << uint(x&63)
}

// Unset clears the bit at (x, y).
func (m *BitMatrix) Unset(x, y int) {
	m.rows[y*m.rowSize+x/64] &^= 1 << uint(x&63)
}

// SetRegion sets every bit in the width x height region whose top-left
// corner is at (left, top).
func (m *BitMatrix) SetRegion(left, top, width, height int) {
	if width < 1 || height < 1 {
		panic("bitutil: region dimensions must be greater than 0")
	}
	right := left + width
	bottom := top + height
	if left < 0 || top < 0 || right > m.width || bottom > m.height {
		panic("bitutil: region out of bounds")
	}
	for y := top; y < bottom; y++ {
		for x := left; x < right; x++ {
			m.Set(x, y)
		}
	}
}

// Clone returns an independent copy of the matrix.
func (m *BitMatrix) Clone() *BitMatrix {
	rows := make([]uint64, len(m.rows))
	copy(rows, m.rows)
	return &BitMatrix{width: m.width, height: m.height, rowSize: m.rowSize, rows: rows}
}

// Equals reports whether m and other have identical dimensions and bits.
func (m *BitMatrix) Equals(other *BitMatrix) bool {
	if m.width != other.width || m.height != other.height {
		return false
	}
	for i, row := range m.rows {
		if row != other.rows[i] {
			return false
		}
	}
	return true
}

// String renders the matrix with "X " for set bits and "  " for unset
// bits, one row per line.
func (m *BitMatrix) String() string {
	var sb strings.Builder
	sb.Grow(m.height * (2*m.width + 1))
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if m.Get(x, y) {
				sb.WriteString("X ")
			} else {
				sb.WriteString("  ")
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
