package imaging

import (
	"image"
	"image/color"
)

// PreBlendImage composites bg under every pixel while keeping the pixel's
// alpha: rgb = src*a + bg*(1-a). The alpha of bg is not used. The result
// renders correctly with non-premultiplied blending over a bg coloured
// surface.
func PreBlendImage(img *image.NRGBA, bg color.NRGBA) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := pixOffset(img, x, y)
			a := uint32(img.Pix[i+3])
			img.Pix[i+0] = blend(img.Pix[i+0], bg.R, a)
			img.Pix[i+1] = blend(img.Pix[i+1], bg.G, a)
			img.Pix[i+2] = blend(img.Pix[i+2], bg.B, a)
		}
	}
}

func blend(src, bg uint8, a uint32) uint8 {
	return uint8((uint32(src)*a + uint32(bg)*(255-a) + 127) / 255)
}
