package chunk

// Color is a linear color. The red, green and blue channels are tint
// multipliers in roughly [0, 2] with 1 being neutral; alpha is in [0, 1].
type Color struct {
	R, G, B, A float32
}

// White is the neutral tint used whenever a color record can't be resolved.
var White = Color{1, 1, 1, 1}

// Color record tag bits. Only the total length they select matters.
const (
	tagRGB1   = 0x01
	tagRGB2   = 0x02
	tagRGB3   = 0x04
	tagAlpha  = 0x08
	tagDouble = 0x10
)

// SizeFromTag returns the length in bytes of the color record selected by
// tag. The doubling bit applies to the running total of the first two bits
// only, so the order of the checks matters.
func SizeFromTag(tag uint8) int {
	n := 0
	if tag&tagRGB2 != 0 {
		n += 3
	}
	if tag&tagAlpha != 0 {
		n++
	}
	if tag&tagDouble != 0 {
		n *= 2
	}
	if tag&tagRGB1 != 0 {
		n += 3
	}
	if tag&tagRGB3 != 0 {
		n += 3
	}
	return n
}

// teint maps a signed channel byte to [-0.002, 1].
func teint(v byte) float32 {
	return float32(int8(v))/255 + 0.5
}

// untint is the inverse of teint.
func untint(f float32) byte {
	v := (f - 0.5) * 255
	if v < 0 {
		v -= 0.5
	} else {
		v += 0.5
	}
	switch {
	case v < -128:
		v = -128
	case v > 127:
		v = 127
	}
	return byte(int8(v))
}

// colorTable holds the entries of one color record. Only the first entry is
// ever used.
type colorTable [][]byte

func readColorTable(c *cursor, tag uint8) (colorTable, error) {
	p, err := c.readBytes(SizeFromTag(tag))
	if err != nil {
		return nil, err
	}
	return colorTable{p}, nil
}

func (t colorTable) get(i int) Color {
	if i >= len(t) {
		return White
	}
	return ResolveColor(t[i])
}

// ResolveColor converts a raw color record into a Color. Four bytes are
// RGBA, three bytes are RGB with opaque alpha and anything else resolves to
// White.
func ResolveColor(p []byte) Color {
	switch len(p) {
	case 4:
		return Color{
			R: teint(p[0]) * 2,
			G: teint(p[1]) * 2,
			B: teint(p[2]) * 2,
			A: teint(p[3]),
		}
	case 3:
		return Color{
			R: teint(p[0]) * 2,
			G: teint(p[1]) * 2,
			B: teint(p[2]) * 2,
			A: 1,
		}
	default:
		return White
	}
}

// encodeColor writes c as a record of length n. Lengths other than 3 or 4
// carry no recoverable color and are zero filled.
func encodeColor(c Color, n int) []byte {
	p := make([]byte, n)
	switch n {
	case 4:
		p[3] = untint(c.A)
		fallthrough
	case 3:
		p[0] = untint(c.R / 2)
		p[1] = untint(c.G / 2)
		p[2] = untint(c.B / 2)
	}
	return p
}
