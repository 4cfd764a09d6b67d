package fontpack

import (
	"bufio"
	"bytes"
	"context"
	"image"
	"image/color"
	"strconv"
	"strings"
	"testing"

	"github.com/RoaringBitmap/roaring"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/agentic-research/respack/internal/atlas"
	"github.com/agentic-research/respack/internal/imaging"
	"github.com/agentic-research/respack/internal/resource"
)

func fontFixture(t *testing.T) (src, out resource.Location) {
	t.Helper()
	fs := memfs.New()
	src = resource.Location{FS: fs, Path: "/in/Body.ttf"}
	require.NoError(t, src.WriteFile(goregular.TTF))
	return src, resource.Location{FS: fs, Path: "/out"}
}

// chars parses the "char" lines of a descriptor into id -> field -> value.
func chars(t *testing.T, data []byte) map[int]map[string]int {
	t.Helper()
	out := map[int]map[string]int{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] != "char" {
			continue
		}
		vals := map[string]int{}
		for _, f := range fields[1:] {
			k, v, ok := strings.Cut(f, "=")
			require.True(t, ok, f)
			n, err := strconv.Atoi(v)
			require.NoError(t, err, f)
			vals[k] = n
		}
		out[vals["id"]] = vals
	}
	return out
}

func TestRasterize_DescriptorThenPages(t *testing.T) {
	src, out := fontFixture(t)
	cps := roaring.New()
	cps.AddRange(65, 68)

	locs, err := NewRasterizer(Options{PageSize: 256, Padding: 1}).Rasterize(context.Background(), src, out, Params{
		Name:       "Body",
		Size:       24,
		CodePoints: cps,
	})
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Equal(t, "Body.fnt", locs[0].Name())
	assert.Equal(t, "Body.png", locs[1].Name())

	data, err := locs[0].ReadFile()
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, `info face="Body" size=24`))
	assert.Contains(t, text, `page id=0 file="Body.png"`)
	assert.Contains(t, text, "chars count=3")

	cs := chars(t, data)
	require.Len(t, cs, 3)
	for _, id := range []int{65, 66, 67} {
		require.Contains(t, cs, id)
		assert.Positive(t, cs[id]["width"])
		assert.Positive(t, cs[id]["xadvance"])
		assert.Equal(t, 0, cs[id]["page"])
	}

	page, err := imaging.Decode(locs[1])
	require.NoError(t, err)
	a := cs[65]
	var opaque bool
	for y := a["y"]; y < a["y"]+a["height"]; y++ {
		for x := a["x"]; x < a["x"]+a["width"]; x++ {
			if c := page.NRGBAAt(x, y); c.A == 0xFF {
				assert.Equal(t, color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, c)
				opaque = true
			}
		}
	}
	assert.True(t, opaque, "glyph A has no solid pixels")
}

func TestRasterize_OutlineGrowsGlyphs(t *testing.T) {
	src, out := fontFixture(t)
	cps := roaring.BitmapOf('H')
	r := NewRasterizer(Options{PageSize: 256})

	plain, err := r.Rasterize(context.Background(), src, out.Join("plain"), Params{Name: "P", Size: 20, CodePoints: cps})
	require.NoError(t, err)
	outlined, err := r.Rasterize(context.Background(), src, out.Join("outlined"), Params{
		Name:       "O",
		Size:       20,
		CodePoints: cps,
		Border:     Border{Width: 2, Color: color.NRGBA{A: 0xFF}},
	})
	require.NoError(t, err)

	pd, err := plain[0].ReadFile()
	require.NoError(t, err)
	od, err := outlined[0].ReadFile()
	require.NoError(t, err)
	p, o := chars(t, pd)['H'], chars(t, od)['H']
	assert.Equal(t, p["width"]+4, o["width"])
	assert.Equal(t, p["height"]+4, o["height"])
	assert.Equal(t, p["xoffset"]-2, o["xoffset"])
	assert.Contains(t, string(od), "outline=2")
}

func TestRasterize_SmallPagesSpill(t *testing.T) {
	src, out := fontFixture(t)
	cps := roaring.New()
	cps.AddRange('A', 'Z'+1)

	locs, err := NewRasterizer(Options{PageSize: 40}).Rasterize(context.Background(), src, out, Params{Name: "Tiny", Size: 16, CodePoints: cps})
	require.NoError(t, err)
	require.Greater(t, len(locs), 2)
	assert.Equal(t, "Tiny_1.png", locs[2].Name())
}

func TestRasterize_Errors(t *testing.T) {
	src, out := fontFixture(t)
	r := NewRasterizer(Options{PageSize: 256})
	ctx := context.Background()

	_, err := r.Rasterize(ctx, src, out, Params{Name: "x", Size: 0})
	assert.Error(t, err)

	_, err = r.Rasterize(ctx, src, out, Params{Name: "x", Size: 12, CodePoints: roaring.BitmapOf(0xFFFF)})
	assert.ErrorIs(t, err, ErrNoGlyphs)

	_, err = NewRasterizer(Options{PageSize: 4}).Rasterize(ctx, src, out, Params{Name: "x", Size: 40, CodePoints: roaring.BitmapOf('W')})
	assert.ErrorIs(t, err, atlas.ErrTooLarge)

	bad := resource.Location{FS: src.FS, Path: "/in/bad.ttf"}
	require.NoError(t, bad.WriteFile([]byte("not a font")))
	_, err = r.Rasterize(ctx, bad, out, Params{Name: "x", Size: 12})
	assert.Error(t, err)
}

func TestRasterize_ExplicitTransparentFill(t *testing.T) {
	src, out := fontFixture(t)
	r := NewRasterizer(Options{PageSize: 256})
	ctx := context.Background()
	maxAlpha := func(loc resource.Location) uint8 {
		img, err := imaging.Decode(loc)
		require.NoError(t, err)
		var peak uint8
		for i := 3; i < len(img.Pix); i += 4 {
			peak = max(peak, img.Pix[i])
		}
		return peak
	}

	white, err := r.Rasterize(ctx, src, out.Join("white"), Params{Name: "W", Size: 24, CodePoints: roaring.BitmapOf('W')})
	require.NoError(t, err)
	hidden, err := r.Rasterize(ctx, src, out.Join("hidden"), Params{
		Name: "W", Size: 24, CodePoints: roaring.BitmapOf('W'), Color: &color.NRGBA{},
	})
	require.NoError(t, err)

	assert.Equal(t, uint8(0xFF), maxAlpha(white[1]))
	assert.Zero(t, maxAlpha(hidden[1]))
}

func TestRasterize_CancelledWhileSelectingGlyphs(t *testing.T) {
	src, out := fontFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRasterizer(Options{}).Rasterize(ctx, src, out, Params{Name: "All", Size: 12})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDilate(t *testing.T) {
	mask := image.NewAlpha(image.Rect(0, 0, 5, 5))
	mask.SetAlpha(2, 2, color.Alpha{A: 0xFF})

	square := dilate(mask, 1, true)
	round := dilate(mask, 1, false)

	assert.Equal(t, uint8(0xFF), square.AlphaAt(1, 1).A)
	assert.Equal(t, uint8(0), round.AlphaAt(1, 1).A)
	assert.Equal(t, uint8(0xFF), round.AlphaAt(2, 1).A)
	assert.Equal(t, uint8(0), square.AlphaAt(0, 0).A)
}

func TestOver(t *testing.T) {
	red := color.NRGBA{R: 0xFF, A: 0xFF}
	black := color.NRGBA{A: 0xFF}

	assert.Equal(t, red, over(red, black))
	assert.Equal(t, black, over(color.NRGBA{R: 0xFF}, black))
	assert.Equal(t, color.NRGBA{R: 128, A: 0xFF}, over(color.NRGBA{R: 0xFF, A: 128}, black))
}
