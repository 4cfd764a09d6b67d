package imaging

import "image"

// ClampImage gives every fully transparent pixel the colour of the nearest
// visible pixel, keeping its alpha at zero. Filtering at sprite edges then
// samples matching colours instead of black.
func ClampImage(img *image.NRGBA) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 {
		return
	}
	filled := make([]bool, w*h)
	queue := make([]int, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if img.Pix[pixOffset(img, x, y)+3] != 0 {
				filled[y*w+x] = true
				queue = append(queue, y*w+x)
			}
		}
	}
	if len(queue) == 0 {
		return
	}

	for head := 0; head < len(queue); head++ {
		i := queue[head]
		x, y := i%w, i/w
		src := pixOffset(img, x, y)
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if filled[j] {
					continue
				}
				filled[j] = true
				dst := pixOffset(img, nx, ny)
				copy(img.Pix[dst:dst+3], img.Pix[src:src+3])
				queue = append(queue, j)
			}
		}
	}
}

// pixOffset indexes Pix relative to the image's top-left corner.
func pixOffset(img *image.NRGBA, x, y int) int {
	return y*img.Stride + x*4
}
