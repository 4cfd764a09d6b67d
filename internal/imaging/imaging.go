// Package imaging provides the image services tasks delegate to: border
// clamping, pre-blending, resampling and the codecs behind them.
package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/agentic-research/respack/internal/resource"
)

// Extensions lists the image formats that can be decoded. Everything is
// written back as png.
var Extensions = []string{"png", "jpg", "jpeg", "gif", "bmp", "tif", "tiff", "webp"}

// IsImage reports whether ext names a decodable image format.
func IsImage(ext string) bool {
	for _, e := range Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// Processor implements the file level image operations.
type Processor struct{}

// New returns a Processor.
func New() *Processor {
	return &Processor{}
}

// Size returns the pixel dimensions without decoding the whole image.
func (p *Processor) Size(loc resource.Location) (image.Point, error) {
	f, err := loc.Open()
	if err != nil {
		return image.Point{}, err
	}
	defer func() { _ = f.Close() }()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Point{}, fmt.Errorf("decode config %s: %w", loc, err)
	}
	return image.Pt(cfg.Width, cfg.Height), nil
}

// Clamp rewrites loc in place with ClampImage applied.
func (p *Processor) Clamp(loc resource.Location) error {
	img, err := Decode(loc)
	if err != nil {
		return err
	}
	ClampImage(img)
	return Encode(loc, img)
}

// PreBlend rewrites loc in place with PreBlendImage applied.
func (p *Processor) PreBlend(loc resource.Location, bg color.NRGBA) error {
	img, err := Decode(loc)
	if err != nil {
		return err
	}
	PreBlendImage(img, bg)
	return Encode(loc, img)
}

// Resize resamples src to width x height and writes the result to dst as png.
func (p *Processor) Resize(src, dst resource.Location, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("resize %s: invalid size %dx%d", src, width, height)
	}
	img, err := Decode(src)
	if err != nil {
		return err
	}
	return Encode(dst, ResizeImage(img, width, height))
}

// Convert re-encodes src as png at dst.
func (p *Processor) Convert(src, dst resource.Location) error {
	img, err := Decode(src)
	if err != nil {
		return err
	}
	return Encode(dst, img)
}

// Decode reads any registered format into an NRGBA image.
func Decode(loc resource.Location) (*image.NRGBA, error) {
	f, err := loc.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", loc, err)
	}
	return ToNRGBA(img), nil
}

// Encode writes img to loc as png.
func Encode(loc resource.Location, img image.Image) error {
	f, err := loc.Create()
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", loc, err)
	}
	return f.Close()
}

// ToNRGBA converts img, copying unless it already is an NRGBA at the origin.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// ResizeImage resamples img with Catmull-Rom filtering.
func ResizeImage(img image.Image, width, height int) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return out
}
