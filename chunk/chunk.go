/*
Package chunk implements a decoder and encoder for map chunk records.

A chunk record starts with a header holding the bounding box of the chunk and
its origin, followed by a count of rectangle descriptors. Each rectangle is
four bytes of cell offsets relative to the origin; for every cell covered by
a rectangle, in x-major then y-major order, a single byte gives the number of
sprite records stacked on that cell. Each sprite record is a fixed run of
fields followed by a color record whose length is derived from the sprite's
type tag.

All multi-byte integers are little-endian. There are no length prefixes or
markers so a single misread corrupts everything after it.
*/
package chunk

import "errors"

const (
	headerSize = 4 + 4 + 2 + 4 + 4 + 2 + 4 + 4 + 2
	rectSize   = 4
	spriteSize = 1 + 2 + 1 + 1 + 4 + 1 + 4 + 1 + 1

	maxRects     = 1<<16 - 1
	maxStack     = 1<<8 - 1
	maxRectRange = 1<<8 - 1
)

var (
	// ErrTruncated is returned when a read runs past the end of the data.
	ErrTruncated = errors.New("chunk: truncated data")

	errTooMuch      = errors.New("chunk: too much data")
	errCellRange    = errors.New("chunk: cell outside rectangle range")
	errTooManyRects = errors.New("chunk: too many rectangles")
)

// Chunk is one decoded map chunk.
type Chunk struct {
	MinX, MinY int32
	MinZ       int16
	MaxX, MaxY int32
	MaxZ       int16

	// OriginX and OriginY are added to every rectangle offset.
	OriginX, OriginY int32

	// Sprites are in decode order: rectangle, then cell, then stack.
	Sprites []Sprite
}

// Sprite is one placed element on a cell.
type Sprite struct {
	CellX, CellY int32
	CellZ        int16

	Height        uint8
	AltitudeOrder uint8

	// Type is the raw tag that selected the color record length.
	Type      uint8
	ElementID uint8

	GroupKey int32
	GroupID  int32
	Layer    uint8

	Color Color
}

// Cell is a run of sprites stacked on the same cell.
type Cell struct {
	X, Y    int32
	Sprites []Sprite
}

// Cells groups consecutive sprites sharing a cell, keeping decode order.
func (c *Chunk) Cells() []Cell {
	var cells []Cell
	for i, s := range c.Sprites {
		if n := len(cells); n > 0 && cells[n-1].X == s.CellX && cells[n-1].Y == s.CellY {
			cells[n-1].Sprites = c.Sprites[i-len(cells[n-1].Sprites) : i+1]
			continue
		}
		cells = append(cells, Cell{X: s.CellX, Y: s.CellY, Sprites: c.Sprites[i : i+1]})
	}
	return cells
}

// Contains reports whether the cell lies within the declared bounding box.
func (c *Chunk) Contains(x, y int32) bool {
	return x >= c.MinX && x <= c.MaxX && y >= c.MinY && y <= c.MaxY
}

// MarshalBinary encodes the chunk using Encode.
func (c *Chunk) MarshalBinary() ([]byte, error) {
	var e encoder
	if err := e.encode(c); err != nil {
		return nil, err
	}
	return e.buf, nil
}

// UnmarshalBinary decodes exactly one chunk from b. Trailing bytes are an
// error.
func (c *Chunk) UnmarshalBinary(b []byte) error {
	d, n, err := Decode(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return errTooMuch
	}
	*c = *d
	return nil
}
