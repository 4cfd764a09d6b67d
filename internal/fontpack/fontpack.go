// Package fontpack renders TrueType and OpenType fonts into bitmap font
// pages with a BMFont text descriptor.
package fontpack

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"

	"github.com/RoaringBitmap/roaring"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/agentic-research/respack/internal/atlas"
	"github.com/agentic-research/respack/internal/imaging"
	"github.com/agentic-research/respack/internal/resource"
)

// ErrNoGlyphs is returned when none of the requested code points exist in the font.
var ErrNoGlyphs = errors.New("font has no glyphs for the requested code points")

// Border draws an outline around every glyph.
type Border struct {
	Width    int
	Color    color.NRGBA
	Straight bool
}

// Params describes one bitmap font to produce.
type Params struct {
	Name   string
	Size   int
	Color  *color.NRGBA // glyph fill; nil means opaque white
	Border Border
	// CodePoints lists the runes to render. Nil or empty selects every code
	// point of the basic multilingual plane the font maps.
	CodePoints *roaring.Bitmap
}

func (p Params) fill() color.NRGBA {
	if p.Color == nil {
		return color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	}
	return *p.Color
}

// Options are the page layout settings shared by every font of a run.
type Options struct {
	PageSize int
	Padding  int
}

// Rasterizer renders fonts with golang.org/x/image/font/opentype.
type Rasterizer struct {
	opts Options
}

// NewRasterizer returns a Rasterizer laying glyphs out on pages of opts.PageSize.
func NewRasterizer(opts Options) *Rasterizer {
	if opts.PageSize <= 0 {
		opts.PageSize = 1024
	}
	return &Rasterizer{opts: opts}
}

type glyph struct {
	id       rune
	img      *image.NRGBA
	page     int
	at       image.Point
	offset   image.Point
	xadvance int
}

// Rasterize renders src into out. The first returned location is the
// <name>.fnt descriptor, followed by the pages <name>.png, <name>_1.png, ...
func (r *Rasterizer) Rasterize(ctx context.Context, src, out resource.Location, p Params) ([]resource.Location, error) {
	if p.Size <= 0 {
		return nil, fmt.Errorf("font %s: invalid size %d", p.Name, p.Size)
	}
	if p.Border.Width < 0 {
		return nil, fmt.Errorf("font %s: invalid outline width %d", p.Name, p.Border.Width)
	}
	data, err := src.ReadFile()
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", src, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", src, err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(p.Size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("font %s: %w", src, err)
	}
	defer face.Close()

	runes, err := codePoints(ctx, f, p.CodePoints)
	if err != nil {
		return nil, fmt.Errorf("font %s: %w", src, err)
	}
	if len(runes) == 0 {
		return nil, fmt.Errorf("font %s: %w", src, ErrNoGlyphs)
	}

	metrics := face.Metrics()
	base := metrics.Ascent.Ceil() + p.Border.Width
	lineHeight := metrics.Height.Ceil() + 2*p.Border.Width

	glyphs := make([]*glyph, 0, len(runes))
	for i, cp := range runes {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		g, ok := renderGlyph(face, cp, base, p)
		if ok {
			glyphs = append(glyphs, g)
		}
	}

	pages, err := r.layout(glyphs)
	if err != nil {
		return nil, fmt.Errorf("font %s: %w", p.Name, err)
	}

	locs := []resource.Location{out.Join(p.Name + ".fnt")}
	pageNames := make([]string, len(pages))
	for i, img := range pages {
		pageNames[i] = pageName(p.Name, i)
		loc := out.Join(pageNames[i])
		if err := imaging.Encode(loc, img); err != nil {
			return nil, err
		}
		locs = append(locs, loc)
	}

	desc := descriptor{
		face:       p.Name,
		size:       p.Size,
		outline:    p.Border.Width,
		padding:    r.opts.Padding,
		lineHeight: lineHeight,
		base:       base,
		scale:      pages[0].Rect.Size(),
		pages:      pageNames,
		glyphs:     glyphs,
	}
	if err := locs[0].WriteFile(desc.encode()); err != nil {
		return nil, fmt.Errorf("write font descriptor: %w", err)
	}
	return locs, nil
}

// codePoints returns the runes to render that the font actually maps, in
// ascending order.
func codePoints(ctx context.Context, f *opentype.Font, want *roaring.Bitmap) ([]rune, error) {
	var (
		buf     sfnt.Buffer
		checked int
	)
	mapped := func(r rune) (bool, error) {
		if checked++; checked%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return false, err
			}
		}
		idx, err := f.GlyphIndex(&buf, r)
		if err != nil {
			return false, err
		}
		return idx != 0, nil
	}

	var out []rune
	if want == nil || want.IsEmpty() {
		for r := rune(0x20); r <= 0xFFFF; r++ {
			if r >= 0xD800 && r <= 0xDFFF {
				continue
			}
			ok, err := mapped(r)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, r)
			}
		}
		return out, nil
	}

	it := want.Iterator()
	for it.HasNext() {
		r := rune(it.Next())
		ok, err := mapped(r)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func renderGlyph(face font.Face, cp rune, base int, p Params) (*glyph, bool) {
	dr, mask, maskp, advance, ok := face.Glyph(fixed.P(0, 0), cp)
	if !ok {
		return nil, false
	}
	g := &glyph{id: cp, xadvance: advance.Round()}
	if dr.Empty() {
		return g, true
	}

	b := p.Border.Width
	fill := image.NewAlpha(image.Rect(0, 0, dr.Dx()+2*b, dr.Dy()+2*b))
	for y := 0; y < dr.Dy(); y++ {
		for x := 0; x < dr.Dx(); x++ {
			_, _, _, a := mask.At(maskp.X+x, maskp.Y+y).RGBA()
			fill.SetAlpha(x+b, y+b, color.Alpha{A: uint8(a >> 8)})
		}
	}

	var outline *image.Alpha
	if b > 0 {
		outline = dilate(fill, b, p.Border.Straight)
	}
	g.img = compose(fill, outline, p.fill(), p.Border.Color)
	g.offset = image.Pt(dr.Min.X-b, base+dr.Min.Y-b)
	return g, true
}

// layout packs glyphs tallest first and renders the pages. Every page has the
// same size: the largest extent used on any page.
func (r *Rasterizer) layout(glyphs []*glyph) ([]*image.NRGBA, error) {
	order := make([]*glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if g.img != nil {
			order = append(order, g)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		hi, hj := order[i].img.Rect.Dy(), order[j].img.Rect.Dy()
		if hi != hj {
			return hi > hj
		}
		return order[i].id < order[j].id
	})

	shelf := atlas.NewShelf(r.opts.PageSize, r.opts.PageSize, r.opts.Padding)
	for _, g := range order {
		page, at, err := shelf.Place(g.img.Rect.Dx(), g.img.Rect.Dy())
		if err != nil {
			return nil, fmt.Errorf("glyph %U: %w", g.id, err)
		}
		g.page, g.at = page, at
	}

	size := image.Pt(1, 1)
	for i := 0; i < shelf.Pages(); i++ {
		ext := shelf.Extent(i)
		size.X = max(size.X, ext.X)
		size.Y = max(size.Y, ext.Y)
	}
	pages := make([]*image.NRGBA, max(shelf.Pages(), 1))
	for i := range pages {
		pages[i] = image.NewNRGBA(image.Rectangle{Max: size})
	}
	for _, g := range order {
		dst := pages[g.page]
		for y := 0; y < g.img.Rect.Dy(); y++ {
			row := g.img.Pix[y*g.img.Stride : y*g.img.Stride+g.img.Rect.Dx()*4]
			off := dst.PixOffset(g.at.X, g.at.Y+y)
			copy(dst.Pix[off:off+len(row)], row)
		}
	}
	return pages, nil
}

func pageName(name string, i int) string {
	if i == 0 {
		return name + ".png"
	}
	return fmt.Sprintf("%s_%d.png", name, i)
}
