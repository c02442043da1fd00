package chunk

import (
	"bytes"
	"encoding/binary"
	"io"
)

type encoder struct {
	buf []byte
}

func (e *encoder) u8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *encoder) u16(v uint16) {
	var tmp [2]byte
	byteOrder.PutUint16(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

func (e *encoder) i32(v int32) {
	var tmp [4]byte
	byteOrder.PutUint32(tmp[:], uint32(v))
	e.buf = append(e.buf, tmp[:]...)
}

func (e *encoder) sprite(s *Sprite) {
	e.u8(s.Type)
	e.u16(uint16(s.CellZ))
	e.u8(s.Height)
	e.u8(s.AltitudeOrder)
	e.i32(s.GroupKey)
	e.u8(s.Layer)
	e.i32(s.GroupID)
	e.u8(0) // occluder
	e.u8(s.ElementID)
	e.buf = append(e.buf, encodeColor(s.Color, SizeFromTag(s.Type))...)
}

// offset returns v relative to origin as a rectangle corner, leaving room
// for the exclusive upper bound.
func offset(v, origin int32) (uint8, error) {
	d := int64(v) - int64(origin)
	if d < 0 || d >= maxRectRange {
		return 0, errCellRange
	}
	return uint8(d), nil
}

func (e *encoder) encode(c *Chunk) error {
	// Every run of sprites on the same cell becomes a 1x1 rectangle so
	// that decode order is reproduced exactly.
	var runs [][]Sprite
	for _, cell := range c.Cells() {
		for s := cell.Sprites; len(s) > 0; {
			n := len(s)
			if n > maxStack {
				n = maxStack
			}
			runs = append(runs, s[:n])
			s = s[n:]
		}
	}
	if len(runs) > maxRects {
		return errTooManyRects
	}

	h := header{
		MinX:    c.MinX,
		MinY:    c.MinY,
		MinZ:    c.MinZ,
		MaxX:    c.MaxX,
		MaxY:    c.MaxY,
		MaxZ:    c.MaxZ,
		OriginX: c.OriginX,
		OriginY: c.OriginY,
		Rects:   uint16(len(runs)),
	}
	b := bytes.NewBuffer(make([]byte, 0, headerSize+len(runs)*(rectSize+1)+len(c.Sprites)*(spriteSize+4)))
	if err := binary.Write(b, byteOrder, &h); err != nil {
		return err
	}
	e.buf = b.Bytes()

	for _, run := range runs {
		x, err := offset(run[0].CellX, c.OriginX)
		if err != nil {
			return err
		}
		y, err := offset(run[0].CellY, c.OriginY)
		if err != nil {
			return err
		}
		e.buf = append(e.buf, x, x+1, y, y+1, uint8(len(run)))
		for i := range run {
			e.sprite(&run[i])
		}
	}

	return nil
}

// Encode writes the chunk c to w. Sprites are written one rectangle per run
// of consecutive sprites sharing a cell, so decoding the result reproduces
// the same sprite order. Color records are rebuilt from the resolved colors;
// records whose length is neither 3 nor 4 bytes are zero filled.
func Encode(w io.Writer, c *Chunk) error {
	var e encoder
	if err := e.encode(c); err != nil {
		return err
	}
	_, err := w.Write(e.buf)
	return err
}
