package fontpack

import (
	"bytes"
	"fmt"
	"image"
	"sort"
)

// descriptor is the BMFont text format.
type descriptor struct {
	face       string
	size       int
	outline    int
	padding    int
	lineHeight int
	base       int
	scale      image.Point
	pages      []string
	glyphs     []*glyph
}

func (d descriptor) encode() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "info face=%q size=%d bold=0 italic=0 charset=\"\" unicode=1 stretchH=100 smooth=1 aa=1 padding=0,0,0,0 spacing=%d,%d outline=%d\n",
		d.face, d.size, d.padding, d.padding, d.outline)
	fmt.Fprintf(&b, "common lineHeight=%d base=%d scaleW=%d scaleH=%d pages=%d packed=0\n",
		d.lineHeight, d.base, d.scale.X, d.scale.Y, len(d.pages))
	for i, p := range d.pages {
		fmt.Fprintf(&b, "page id=%d file=%q\n", i, p)
	}

	glyphs := append([]*glyph(nil), d.glyphs...)
	sort.Slice(glyphs, func(i, j int) bool { return glyphs[i].id < glyphs[j].id })
	fmt.Fprintf(&b, "chars count=%d\n", len(glyphs))
	for _, g := range glyphs {
		var w, h int
		if g.img != nil {
			w, h = g.img.Rect.Dx(), g.img.Rect.Dy()
		}
		fmt.Fprintf(&b, "char id=%d x=%d y=%d width=%d height=%d xoffset=%d yoffset=%d xadvance=%d page=%d chnl=15\n",
			g.id, g.at.X, g.at.Y, w, h, g.offset.X, g.offset.Y, g.xadvance, g.page)
	}
	return b.Bytes()
}
