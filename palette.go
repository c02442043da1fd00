package mapchunk

import (
	"image"
	"image/color"

	"github.com/bodgit/mapchunk/chunk"
	"github.com/ericpauley/go-quantize/quantize"
)

func clamp(f float32) uint8 {
	switch {
	case f <= 0:
		return 0
	case f >= 1:
		return 0xff
	default:
		return uint8(f*0xff + 0.5)
	}
}

// Tints are stored at half scale so the neutral tint sits mid range
func toNRGBA(c chunk.Color) color.NRGBA {
	return color.NRGBA{clamp(c.R / 2), clamp(c.G / 2), clamp(c.B / 2), clamp(c.A)}
}

func fromColor(c color.Color) chunk.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return chunk.Color{
		R: float32(n.R) / 0xff * 2,
		G: float32(n.G) / 0xff * 2,
		B: float32(n.B) / 0xff * 2,
		A: float32(n.A) / 0xff,
	}
}

// DominantTints reduces the tints of every sprite in chunks to at most n
// representative tints using median cut quantization. Channels are resolved
// to 8 bits so the result is approximate.
func DominantTints(chunks []*chunk.Chunk, n int) []chunk.Color {
	var total int
	for _, c := range chunks {
		total += len(c.Sprites)
	}
	if total == 0 || n < 1 {
		return nil
	}

	// One pixel per sprite
	m := image.NewNRGBA(image.Rect(0, 0, total, 1))
	x := 0
	for _, c := range chunks {
		for _, s := range c.Sprites {
			m.SetNRGBA(x, 0, toNRGBA(s.Color))
			x++
		}
	}

	q := quantize.MedianCutQuantizer{}
	p := q.Quantize(make(color.Palette, 0, n), m)

	tints := make([]chunk.Color, 0, len(p))
	for _, c := range p {
		tints = append(tints, fromColor(c))
	}
	return tints
}
