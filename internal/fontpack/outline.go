package fontpack

import (
	"image"
	"image/color"
)

// dilate grows the mask by radius pixels. A square kernel gives mitered
// corners, a disc kernel rounded ones.
func dilate(mask *image.Alpha, radius int, square bool) *image.Alpha {
	var kernel []image.Point
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if square || dx*dx+dy*dy <= radius*radius {
				kernel = append(kernel, image.Pt(dx, dy))
			}
		}
	}

	b := mask.Rect
	out := image.NewAlpha(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var peak uint8
			for _, k := range kernel {
				p := image.Pt(x+k.X, y+k.Y)
				if !p.In(b) {
					continue
				}
				if a := mask.AlphaAt(p.X, p.Y).A; a > peak {
					peak = a
					if peak == 0xFF {
						break
					}
				}
			}
			out.SetAlpha(x, y, color.Alpha{A: peak})
		}
	}
	return out
}

// compose paints the outline colour through outline (when set) and the fill
// colour through fill on top of it.
func compose(fill, outline *image.Alpha, fg, border color.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(fill.Rect)
	for y := fill.Rect.Min.Y; y < fill.Rect.Max.Y; y++ {
		for x := fill.Rect.Min.X; x < fill.Rect.Max.X; x++ {
			var under color.NRGBA
			if outline != nil {
				under = withCoverage(border, outline.AlphaAt(x, y).A)
			}
			dst.SetNRGBA(x, y, over(withCoverage(fg, fill.AlphaAt(x, y).A), under))
		}
	}
	return dst
}

func withCoverage(c color.NRGBA, coverage uint8) color.NRGBA {
	c.A = uint8((uint32(c.A)*uint32(coverage) + 127) / 255)
	return c
}

// over composites non-premultiplied src over dst.
func over(src, dst color.NRGBA) color.NRGBA {
	if src.A == 0xFF || dst.A == 0 {
		return src
	}
	if src.A == 0 {
		return dst
	}
	sa := uint32(src.A)
	da := uint32(dst.A) * (255 - sa) / 255
	a := sa + da
	mix := func(s, d uint8) uint8 {
		return uint8((uint32(s)*sa + uint32(d)*da + a/2) / a)
	}
	return color.NRGBA{
		R: mix(src.R, dst.R),
		G: mix(src.G, dst.G),
		B: mix(src.B, dst.B),
		A: uint8(a),
	}
}
