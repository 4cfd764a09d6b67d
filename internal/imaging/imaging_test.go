package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/respack/internal/resource"
)

func TestClampImage_BleedsNearestColour(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(3, 0, color.NRGBA{B: 255, A: 10})

	ClampImage(img)

	assert.Equal(t, color.NRGBA{R: 255, A: 255}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 255}, img.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{B: 255}, img.NRGBAAt(2, 0))
	assert.Equal(t, color.NRGBA{B: 255, A: 10}, img.NRGBAAt(3, 0))
}

func TestClampImage_FullyTransparentUnchanged(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	img.SetNRGBA(1, 1, color.NRGBA{R: 9})
	ClampImage(img)
	assert.Equal(t, color.NRGBA{R: 9}, img.NRGBAAt(1, 1))
	assert.Equal(t, color.NRGBA{}, img.NRGBAAt(0, 0))
}

func TestPreBlendImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 0})
	img.SetNRGBA(2, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 128})

	PreBlendImage(img, color.NRGBA{R: 0, G: 0, B: 255, A: 255})

	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, img.NRGBAAt(0, 0), "opaque pixels keep their colour")
	assert.Equal(t, color.NRGBA{R: 0, G: 0, B: 255, A: 0}, img.NRGBAAt(1, 0), "transparent pixels take the background")
	assert.Equal(t, color.NRGBA{R: 128, G: 128, B: 255, A: 128}, img.NRGBAAt(2, 0), "alpha preserved")
}

func TestResizeImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 20))
	out := ResizeImage(img, 5, 7)
	assert.Equal(t, image.Rect(0, 0, 5, 7), out.Bounds())
}

func TestProcessor_FileOperations(t *testing.T) {
	fs := memfs.New()
	src := resource.Location{FS: fs, Path: "/in/a.png"}
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	img.SetNRGBA(0, 0, color.NRGBA{G: 200, A: 255})
	require.NoError(t, Encode(src, img))

	p := New()
	size, err := p.Size(src)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(8, 4), size)

	require.NoError(t, p.Clamp(src))
	got, err := Decode(src)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{G: 200}, got.NRGBAAt(7, 3))

	require.NoError(t, p.PreBlend(src, color.NRGBA{R: 255, A: 255}))
	got, err = Decode(src)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255}, got.NRGBAAt(7, 3))

	dst := resource.Location{FS: fs, Path: "/out/a.png"}
	require.NoError(t, p.Resize(src, dst, 4, 2))
	size, err = p.Size(dst)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(4, 2), size)

	assert.Error(t, p.Resize(src, dst, 0, 2))

	conv := resource.Location{FS: fs, Path: "/out/b.png"}
	require.NoError(t, p.Convert(dst, conv))
	size, err = p.Size(conv)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(4, 2), size)
	_, err = Decode(resource.Location{FS: fs, Path: "/missing.png"})
	assert.Error(t, err)
}

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage("PNG"))
	assert.True(t, IsImage("webp"))
	assert.False(t, IsImage("ttf"))
}
