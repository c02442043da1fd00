package chunk

import "encoding/binary"

var byteOrder = binary.LittleEndian

// cursor reads fixed width values sequentially from an immutable buffer.
type cursor struct {
	b   []byte
	off int
}

func (c *cursor) next(n int) ([]byte, error) {
	if n < 0 || len(c.b)-c.off < n {
		return nil, ErrTruncated
	}
	p := c.b[c.off : c.off+n : c.off+n]
	c.off += n
	return p, nil
}

func (c *cursor) readU8() (uint8, error) {
	p, err := c.next(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

func (c *cursor) readBool() (bool, error) {
	v, err := c.readU8()
	return v != 0, err
}

func (c *cursor) readU16() (uint16, error) {
	p, err := c.next(2)
	if err != nil {
		return 0, err
	}
	return byteOrder.Uint16(p), nil
}

func (c *cursor) readI16() (int16, error) {
	v, err := c.readU16()
	return int16(v), err
}

func (c *cursor) readI32() (int32, error) {
	p, err := c.next(4)
	if err != nil {
		return 0, err
	}
	return int32(byteOrder.Uint32(p)), nil
}

// readBytes returns the next n bytes without copying them.
func (c *cursor) readBytes(n int) ([]byte, error) {
	return c.next(n)
}
