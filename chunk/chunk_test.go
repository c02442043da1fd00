package chunk

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// builder assembles raw chunk records independently of the encoder.
type builder struct {
	bytes.Buffer
}

func (b *builder) put(v ...interface{}) *builder {
	for _, x := range v {
		if err := binary.Write(b, binary.LittleEndian, x); err != nil {
			panic(err)
		}
	}
	return b
}

func (b *builder) header(originX, originY int32, rects uint16) *builder {
	return b.put(int32(-10), int32(-20), int16(-1), int32(100), int32(200), int16(50), originX, originY, rects)
}

func (b *builder) rect(minX, maxX, minY, maxY uint8) *builder {
	return b.put([]uint8{minX, maxX, minY, maxY})
}

func (b *builder) sprite(typ uint8, z int16, elementID uint8, color []byte) *builder {
	b.put(typ, z, uint8(3), uint8(4), int32(1000), uint8(2), int32(77), uint8(1), elementID)
	b.Write(color)
	return b
}

func TestDecode(t *testing.T) {
	var b builder
	b.header(16, 32, 2)
	// 2x2 rectangle at (16+1, 32+0)
	b.rect(1, 3, 0, 2)
	b.put(uint8(1)).sprite(0x02, 5, 1, []byte{0, 0, 0}) // (17,32)
	b.put(uint8(0))                                      // (17,33)
	b.put(uint8(2)).
		sprite(0x0a, 6, 2, []byte{0, 0, 0, 0xff}).
		sprite(0x00, -7, 3, nil) // (18,32)
	b.put(uint8(1)).sprite(0x08, 8, 4, []byte{9}) // (18,33)
	// Empty rectangle
	b.rect(5, 5, 0, 4)
	raw := b.Bytes()
	raw = append(raw, 0xde, 0xad)

	c, n, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, len(raw)-2, n)

	assert.Equal(t, int32(-10), c.MinX)
	assert.Equal(t, int32(-20), c.MinY)
	assert.Equal(t, int16(-1), c.MinZ)
	assert.Equal(t, int32(100), c.MaxX)
	assert.Equal(t, int32(200), c.MaxY)
	assert.Equal(t, int16(50), c.MaxZ)
	assert.Equal(t, int32(16), c.OriginX)
	assert.Equal(t, int32(32), c.OriginY)

	require.Len(t, c.Sprites, 4)

	type pos struct {
		x, y int32
		z    int16
		id   uint8
	}
	var got []pos
	for _, s := range c.Sprites {
		got = append(got, pos{s.CellX, s.CellY, s.CellZ, s.ElementID})
		assert.Equal(t, uint8(3), s.Height)
		assert.Equal(t, uint8(4), s.AltitudeOrder)
		assert.Equal(t, int32(1000), s.GroupKey)
		assert.Equal(t, int32(77), s.GroupID)
		assert.Equal(t, uint8(2), s.Layer)
	}
	assert.Equal(t, []pos{
		{17, 32, 5, 1},
		{18, 32, 6, 2},
		{18, 32, -7, 3},
		{18, 33, 8, 4},
	}, got)

	assert.Equal(t, Color{1, 1, 1, 1}, c.Sprites[0].Color)
	assert.Equal(t, float32(1), c.Sprites[1].Color.R)
	assert.InDelta(t, 0.4961, c.Sprites[1].Color.A, 1e-4)
	assert.Equal(t, White, c.Sprites[2].Color)
	assert.Equal(t, White, c.Sprites[3].Color)

	assert.Equal(t, uint8(0x0a), c.Sprites[1].Type)
}

func TestDecodeNoRectangles(t *testing.T) {
	var b builder
	b.header(0, 0, 0)

	c, n, err := Decode(b.Bytes())
	require.NoError(t, err)
	assert.Equal(t, headerSize, n)
	assert.Empty(t, c.Sprites)
}

func TestDecodeEmptyCells(t *testing.T) {
	var b builder
	b.header(0, 0, 1)
	b.rect(0, 3, 0, 1)
	b.put(uint8(0), uint8(0))
	b.put(uint8(1)).sprite(0x01, 0, 9, []byte{1, 2, 3})

	c, n, err := Decode(b.Bytes())
	require.NoError(t, err)
	assert.Equal(t, b.Len(), n)
	require.Len(t, c.Sprites, 1)
	assert.Equal(t, int32(2), c.Sprites[0].CellX)
	assert.Equal(t, uint8(9), c.Sprites[0].ElementID)
}

func TestDecodeTruncated(t *testing.T) {
	var b builder
	b.header(0, 0, 1)
	b.rect(0, 1, 0, 1)
	b.put(uint8(1)).sprite(0x0a, 1, 1, []byte{1, 2, 3, 4})
	raw := b.Bytes()

	for _, n := range []int{0, 1, headerSize - 1, headerSize, headerSize + rectSize, len(raw) - 1} {
		c, off, err := Decode(raw[:n])
		assert.ErrorIs(t, err, ErrTruncated, "length %d", n)
		assert.Nil(t, c)
		assert.Zero(t, off)
	}
}

func TestDecodeCellsOutsideBounds(t *testing.T) {
	var b builder
	// Declared bounds are x in [-10, 100], the origin puts every cell past them
	b.header(200, 0, 2)
	b.rect(0, 1, 0, 1)
	b.put(uint8(1)).sprite(0x02, 0, 1, []byte{0, 0, 0})
	// Inverted rectangle covers no cells so no count byte follows
	b.rect(5, 3, 0, 1)
	b.put(uint8(0xff))

	c, n, err := Decode(b.Bytes())
	require.NoError(t, err)
	assert.Equal(t, b.Len()-1, n)

	require.Len(t, c.Sprites, 1)
	assert.Equal(t, int32(200), c.Sprites[0].CellX)
	assert.Equal(t, int32(0), c.Sprites[0].CellY)
	assert.False(t, c.Contains(c.Sprites[0].CellX, c.Sprites[0].CellY))
}

func TestDecoderWarn(t *testing.T) {
	var b builder
	b.header(0, 0, 1)
	b.rect(0, 1, 0, 1)
	b.put(uint8(3)).
		sprite(0x12, 0, 1, make([]byte, 6)).
		sprite(0x00, 0, 2, nil).
		sprite(0x0a, 0, 3, []byte{1, 2, 3, 4})

	var warnings []Warning
	d := Decoder{Warn: func(w Warning) { warnings = append(warnings, w) }}
	c, _, err := d.Decode(b.Bytes())
	require.NoError(t, err)
	require.Len(t, c.Sprites, 3)
	assert.Equal(t, White, c.Sprites[0].Color)

	require.Len(t, warnings, 1)
	assert.Equal(t, Warning{Offset: headerSize + rectSize + 1 + spriteSize, Tag: 0x12, Length: 6}, warnings[0])
}

func TestEncodeRoundTrip(t *testing.T) {
	var b builder
	b.header(-64, 128, 2)
	b.rect(0, 2, 0, 2)
	b.put(uint8(2)).
		sprite(0x0a, 1, 1, []byte{0x10, 0x80, 0x7f, 0x33}).
		sprite(0x01, 2, 2, []byte{0xff, 0x01, 0x00})
	b.put(uint8(0))
	b.put(uint8(1)).sprite(0x12, 3, 3, []byte{1, 2, 3, 4, 5, 6})
	b.put(uint8(1)).sprite(0x04, -4, 4, []byte{4, 5, 6})
	b.rect(0, 1, 0, 1)
	b.put(uint8(1)).sprite(0x02, 5, 5, []byte{7, 8, 9})

	want, _, err := Decode(b.Bytes())
	require.NoError(t, err)
	require.Len(t, want.Sprites, 5)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, want))

	got, n, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, buf.Len(), n)
	assert.Equal(t, want, got)

	raw, err := want.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), raw)

	var c Chunk
	require.NoError(t, c.UnmarshalBinary(raw))
	assert.Equal(t, want, &c)
}

func TestEncodeSplitsTallStacks(t *testing.T) {
	c := &Chunk{OriginX: 10, OriginY: 10}
	for i := 0; i < 300; i++ {
		c.Sprites = append(c.Sprites, Sprite{CellX: 11, CellY: 12, Type: 0x02, ElementID: uint8(i), Color: White})
	}

	raw, err := c.MarshalBinary()
	require.NoError(t, err)

	got, _, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, c.Sprites, got.Sprites)
	assert.Len(t, got.Cells(), 1)
}

func TestEncodeErrors(t *testing.T) {
	c := &Chunk{OriginX: 10, Sprites: []Sprite{{CellX: 9}}}
	_, err := c.MarshalBinary()
	assert.Equal(t, errCellRange, err)

	c = &Chunk{Sprites: []Sprite{{CellX: 255}}}
	_, err = c.MarshalBinary()
	assert.Equal(t, errCellRange, err)

	c = &Chunk{}
	for i := 0; i <= maxRects; i++ {
		c.Sprites = append(c.Sprites, Sprite{CellX: int32(i % 2)})
	}
	_, err = c.MarshalBinary()
	assert.Equal(t, errTooManyRects, err)
}

func TestUnmarshalBinaryTrailingData(t *testing.T) {
	var b builder
	b.header(0, 0, 0)
	b.put(uint8(0))

	var c Chunk
	assert.Equal(t, errTooMuch, c.UnmarshalBinary(b.Bytes()))
}

func TestCells(t *testing.T) {
	c := &Chunk{Sprites: []Sprite{
		{CellX: 1, CellY: 1, ElementID: 1},
		{CellX: 1, CellY: 1, ElementID: 2},
		{CellX: 1, CellY: 2, ElementID: 3},
		{CellX: 1, CellY: 1, ElementID: 4},
	}}

	cells := c.Cells()
	require.Len(t, cells, 3)
	assert.Equal(t, Cell{X: 1, Y: 1, Sprites: c.Sprites[0:2]}, cells[0])
	assert.Equal(t, Cell{X: 1, Y: 2, Sprites: c.Sprites[2:3]}, cells[1])
	assert.Equal(t, Cell{X: 1, Y: 1, Sprites: c.Sprites[3:4]}, cells[2])

	assert.True(t, c.Contains(0, 0))
	assert.False(t, c.Contains(1, 0))
}

func TestWarningString(t *testing.T) {
	w := Warning{Offset: 51, Tag: 0x05, Length: SizeFromTag(0x05)}
	assert.Equal(t, "color record at offset 51: tag 0x05 selects 6 bytes", w.String())
}
