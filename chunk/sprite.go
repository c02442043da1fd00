package chunk

// spriteRecord is the fixed part of a sprite record as it appears in the
// stream.
type spriteRecord struct {
	typ           uint8
	cellZ         int16
	height        uint8
	altitudeOrder uint8
	groupKey      int32
	layer         uint8
	groupID       int32
	occluder      bool
	elementID     uint8
}

func (r *spriteRecord) read(c *cursor) (err error) {
	if r.typ, err = c.readU8(); err != nil {
		return
	}
	if r.cellZ, err = c.readI16(); err != nil {
		return
	}
	if r.height, err = c.readU8(); err != nil {
		return
	}
	if r.altitudeOrder, err = c.readU8(); err != nil {
		return
	}
	if r.groupKey, err = c.readI32(); err != nil {
		return
	}
	if r.layer, err = c.readU8(); err != nil {
		return
	}
	if r.groupID, err = c.readI32(); err != nil {
		return
	}
	if r.occluder, err = c.readBool(); err != nil {
		return
	}
	r.elementID, err = c.readU8()
	return
}

func (d *Decoder) readSprite(c *cursor, x, y int32) (Sprite, error) {
	var r spriteRecord
	if err := r.read(c); err != nil {
		return Sprite{}, err
	}

	off := c.off
	table, err := readColorTable(c, r.typ)
	if err != nil {
		return Sprite{}, err
	}
	if d.Warn != nil {
		if n := len(table[0]); n != 0 && n != 3 && n != 4 {
			d.Warn(Warning{Offset: off, Tag: r.typ, Length: n})
		}
	}

	return Sprite{
		CellX:         x,
		CellY:         y,
		CellZ:         r.cellZ,
		Height:        r.height,
		AltitudeOrder: r.altitudeOrder,
		Type:          r.typ,
		ElementID:     r.elementID,
		GroupKey:      r.groupKey,
		GroupID:       r.groupID,
		Layer:         r.layer,
		Color:         table.get(0),
	}, nil
}
