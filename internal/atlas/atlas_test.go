package atlas

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/respack/internal/imaging"
	"github.com/agentic-research/respack/internal/resource"
)

func TestShelf_RowsAndPages(t *testing.T) {
	s := NewShelf(10, 10, 1)

	page, at, err := s.Place(4, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, page)
	assert.Equal(t, image.Pt(0, 0), at)

	_, at, err = s.Place(4, 3)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(5, 0), at)

	// Does not fit in the first row.
	_, at, err = s.Place(4, 4)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(0, 5), at)

	// Does not fit vertically any more.
	page, at, err = s.Place(6, 6)
	require.NoError(t, err)
	assert.Equal(t, 1, page)
	assert.Equal(t, image.Pt(0, 0), at)

	assert.Equal(t, 2, s.Pages())
	assert.Equal(t, image.Pt(9, 9), s.Extent(0))
	assert.Equal(t, image.Pt(6, 6), s.Extent(1))
	assert.Equal(t, image.Point{}, s.Extent(5))
}

func TestShelf_TooLarge(t *testing.T) {
	_, _, err := NewShelf(8, 8, 0).Place(9, 1)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func writeSprite(t *testing.T, loc resource.Location, w, h int, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	require.NoError(t, imaging.Encode(loc, img))
}

func TestPacker_SinglePageHashFormat(t *testing.T) {
	fs := memfs.New()
	in := resource.Location{FS: fs, Path: "/in"}
	out := resource.Location{FS: fs, Path: "/out"}
	writeSprite(t, in.Join("hero.png"), 8, 16, color.NRGBA{R: 255, A: 255})
	writeSprite(t, in.Join("coin.png"), 4, 4, color.NRGBA{G: 255, A: 255})

	locs, err := NewPacker().Pack(context.Background(), []Sprite{
		{Name: "coin", Loc: in.Join("coin.png")},
		{Name: "hero", Loc: in.Join("hero.png")},
	}, out, "sprites", Options{MaxPageSize: 64, Padding: 2})
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Equal(t, "sprites.json", locs[0].Name())
	assert.Equal(t, "sprites.png", locs[1].Name())

	raw, err := locs[0].ReadFile()
	require.NoError(t, err)
	doc, err := oj.ParseString(string(raw))
	require.NoError(t, err)

	// Tallest first: hero at the origin, coin after it plus padding.
	assert.Equal(t, int64(0), jp.MustParseString("$.frames.hero.frame.x").First(doc))
	assert.Equal(t, int64(16), jp.MustParseString("$.frames.hero.frame.h").First(doc))
	assert.Equal(t, int64(10), jp.MustParseString("$.frames.coin.frame.x").First(doc))
	assert.Equal(t, "sprites.png", jp.MustParseString("$.meta.image").First(doc))
	assert.Equal(t, int64(14), jp.MustParseString("$.meta.size.w").First(doc))
	assert.Equal(t, int64(16), jp.MustParseString("$.meta.size.h").First(doc))

	page, err := imaging.Decode(locs[1])
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 14, 16), page.Rect)
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, page.NRGBAAt(10, 0))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, page.NRGBAAt(0, 15))
}

func TestPacker_MultiPageArrayFormat(t *testing.T) {
	fs := memfs.New()
	in := resource.Location{FS: fs, Path: "/in"}
	writeSprite(t, in.Join("a.png"), 8, 8, color.NRGBA{A: 255})
	writeSprite(t, in.Join("b.png"), 8, 8, color.NRGBA{A: 255})

	locs, err := NewPacker().Pack(context.Background(), []Sprite{
		{Name: "a", Loc: in.Join("a.png")},
		{Name: "b", Loc: in.Join("b.png")},
	}, resource.Location{FS: fs, Path: "/out"}, "ui", Options{MaxPageSize: 10})
	require.NoError(t, err)
	require.Len(t, locs, 3)
	assert.Equal(t, "ui2.png", locs[2].Name())

	raw, err := locs[0].ReadFile()
	require.NoError(t, err)
	doc, err := oj.ParseString(string(raw))
	require.NoError(t, err)

	assert.Equal(t, []any{"ui.png", "ui2.png"}, jp.MustParseString("$.textures[*].image").Get(doc))
	assert.NotNil(t, jp.MustParseString("$.textures[0].frames.a").First(doc))
	assert.NotNil(t, jp.MustParseString("$.textures[1].frames.b").First(doc))
	assert.Nil(t, jp.MustParseString("$.frames").First(doc))
}

func TestPacker_Errors(t *testing.T) {
	fs := memfs.New()
	in := resource.Location{FS: fs, Path: "/in"}
	writeSprite(t, in.Join("big.png"), 20, 20, color.NRGBA{A: 255})
	out := resource.Location{FS: fs, Path: "/out"}

	_, err := NewPacker().Pack(context.Background(), []Sprite{{Name: "big", Loc: in.Join("big.png")}}, out, "x", Options{MaxPageSize: 16})
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = NewPacker().Pack(context.Background(), nil, out, "x", Options{})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewPacker().Pack(ctx, []Sprite{{Name: "big", Loc: in.Join("big.png")}}, out, "x", Options{MaxPageSize: 64})
	assert.ErrorIs(t, err, context.Canceled)

	writeSprite(t, in.Join("a.png"), 2, 2, color.NRGBA{A: 255})
	writeSprite(t, in.Join("a.gif.png"), 2, 2, color.NRGBA{A: 255})
	_, err = NewPacker().Pack(context.Background(), []Sprite{
		{Name: "a", Loc: in.Join("a.png")},
		{Name: "a", Loc: in.Join("a.gif.png")},
	}, out, "x", Options{MaxPageSize: 64})
	assert.ErrorIs(t, err, ErrDuplicateSprite)
}

func TestPageName(t *testing.T) {
	assert.Equal(t, "a.png", PageName("a", 0))
	assert.Equal(t, "a2.png", PageName("a", 1))
	assert.Equal(t, "a10.png", PageName("a", 9))
}
