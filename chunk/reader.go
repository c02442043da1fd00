package chunk

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Warning describes a color record that resolved to White because its
// length is neither 3 nor 4 bytes.
type Warning struct {
	Offset int
	Tag    uint8
	Length int
}

func (w Warning) String() string {
	return fmt.Sprintf("color record at offset %d: tag %#04x selects %d bytes", w.Offset, w.Tag, w.Length)
}

// Decoder decodes chunk records. The zero value is ready to use.
type Decoder struct {
	// Warn, if set, is called for every color record that can't be
	// resolved. Decoding carries on regardless.
	Warn func(Warning)
}

type header struct {
	MinX, MinY       int32
	MinZ             int16
	MaxX, MaxY       int32
	MaxZ             int16
	OriginX, OriginY int32
	Rects            uint16
}

func (h *header) read(c *cursor) error {
	p, err := c.readBytes(headerSize)
	if err != nil {
		return err
	}
	return binary.Read(bytes.NewReader(p), byteOrder, h)
}

// rect is a rectangle descriptor resolved against the origin. The maximum
// bounds are exclusive.
type rect struct {
	minX, maxX int32
	minY, maxY int32
}

func (r *rect) read(c *cursor, originX, originY int32) error {
	p, err := c.readBytes(rectSize)
	if err != nil {
		return err
	}
	r.minX = originX + int32(p[0])
	r.maxX = originX + int32(p[1])
	r.minY = originY + int32(p[2])
	r.maxY = originY + int32(p[3])
	return nil
}

// Decode decodes a chunk from the start of b, returning it together with the
// number of bytes consumed.
func (d *Decoder) Decode(b []byte) (*Chunk, int, error) {
	c := &cursor{b: b}

	var h header
	if err := h.read(c); err != nil {
		return nil, 0, err
	}

	sprites := make([]Sprite, 0, int(h.Rects)*2)

	for i := 0; i < int(h.Rects); i++ {
		var r rect
		if err := r.read(c, h.OriginX, h.OriginY); err != nil {
			return nil, 0, err
		}
		for x := r.minX; x < r.maxX; x++ {
			for y := r.minY; y < r.maxY; y++ {
				count, err := c.readU8()
				if err != nil {
					return nil, 0, err
				}
				for j := 0; j < int(count); j++ {
					s, err := d.readSprite(c, x, y)
					if err != nil {
						return nil, 0, err
					}
					sprites = append(sprites, s)
				}
			}
		}
	}

	return &Chunk{
		MinX:    h.MinX,
		MinY:    h.MinY,
		MinZ:    h.MinZ,
		MaxX:    h.MaxX,
		MaxY:    h.MaxY,
		MaxZ:    h.MaxZ,
		OriginX: h.OriginX,
		OriginY: h.OriginY,
		Sprites: sprites,
	}, c.off, nil
}

// Decode decodes a chunk from the start of b, returning it together with the
// number of bytes consumed. Unresolvable color records silently become
// White.
func Decode(b []byte) (*Chunk, int, error) {
	var d Decoder
	return d.Decode(b)
}
