package atlas

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sort"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/respack/internal/imaging"
	"github.com/agentic-research/respack/internal/resource"
)

// ErrDuplicateSprite is returned when two sprites share a frame name.
var ErrDuplicateSprite = errors.New("duplicate sprite name")

// Sprite is one image to place in an atlas.
type Sprite struct {
	Name string
	Loc  resource.Location
}

// Options controls page size and spacing.
type Options struct {
	MaxPageSize int
	Padding     int
}

// Packer packs sprites into png pages plus a JSON descriptor.
type Packer struct{}

// NewPacker returns a Packer.
func NewPacker() *Packer {
	return &Packer{}
}

type placed struct {
	sprite Sprite
	img    *image.NRGBA
	page   int
	at     image.Point
}

// Pack writes name.json followed by the pages name.png, name2.png, ... into
// out. The returned locations start with the descriptor.
func (p *Packer) Pack(ctx context.Context, sprites []Sprite, out resource.Location, name string, opts Options) ([]resource.Location, error) {
	if opts.MaxPageSize <= 0 {
		return nil, fmt.Errorf("atlas %s: invalid page size %d", name, opts.MaxPageSize)
	}

	seen := make(map[string]bool, len(sprites))
	for _, s := range sprites {
		if seen[s.Name] {
			return nil, fmt.Errorf("atlas %s: %q from %s: %w", name, s.Name, s.Loc, ErrDuplicateSprite)
		}
		seen[s.Name] = true
	}

	items := make([]*placed, 0, len(sprites))
	for _, s := range sprites {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := imaging.Decode(s.Loc)
		if err != nil {
			return nil, err
		}
		items = append(items, &placed{sprite: s, img: img})
	}
	sort.SliceStable(items, func(i, j int) bool {
		hi, hj := items[i].img.Rect.Dy(), items[j].img.Rect.Dy()
		if hi != hj {
			return hi > hj
		}
		return items[i].sprite.Name < items[j].sprite.Name
	})

	shelf := NewShelf(opts.MaxPageSize, opts.MaxPageSize, opts.Padding)
	for _, it := range items {
		page, at, err := shelf.Place(it.img.Rect.Dx(), it.img.Rect.Dy())
		if err != nil {
			return nil, fmt.Errorf("atlas %s: sprite %s: %w", name, it.sprite.Name, err)
		}
		it.page, it.at = page, at
	}

	pageCount := max(shelf.Pages(), 1)
	pages := make([]*image.NRGBA, pageCount)
	for i := range pages {
		ext := shelf.Extent(i)
		pages[i] = image.NewNRGBA(image.Rect(0, 0, max(ext.X, 1), max(ext.Y, 1)))
	}
	for _, it := range items {
		r := image.Rectangle{Min: it.at, Max: it.at.Add(it.img.Rect.Size())}
		draw.Draw(pages[it.page], r, it.img, image.Point{}, draw.Src)
	}

	locs := []resource.Location{out.Join(name + ".json")}
	pageNames := make([]string, pageCount)
	for i, img := range pages {
		pageNames[i] = PageName(name, i)
		loc := out.Join(pageNames[i])
		if err := imaging.Encode(loc, img); err != nil {
			return nil, err
		}
		locs = append(locs, loc)
	}

	doc := descriptor(items, pages, pageNames)
	opt := ojg.DefaultOptions
	opt.Indent = 2
	opt.Sort = true
	if err := locs[0].WriteFile([]byte(oj.JSON(doc, &opt))); err != nil {
		return nil, fmt.Errorf("write atlas descriptor: %w", err)
	}
	return locs, nil
}

// PageName returns the file name of page i: name.png, name2.png, name3.png...
func PageName(name string, i int) string {
	if i == 0 {
		return name + ".png"
	}
	return fmt.Sprintf("%s%d.png", name, i+1)
}

// descriptor builds the TexturePacker hash layout for a single page and the
// "textures" array layout for several.
func descriptor(items []*placed, pages []*image.NRGBA, pageNames []string) map[string]any {
	frames := make([]map[string]any, len(pages))
	for i := range frames {
		frames[i] = map[string]any{}
	}
	for _, it := range items {
		w, h := it.img.Rect.Dx(), it.img.Rect.Dy()
		frames[it.page][it.sprite.Name] = map[string]any{
			"frame":            map[string]any{"x": it.at.X, "y": it.at.Y, "w": w, "h": h},
			"rotated":          false,
			"trimmed":          false,
			"spriteSourceSize": map[string]any{"x": 0, "y": 0, "w": w, "h": h},
			"sourceSize":       map[string]any{"w": w, "h": h},
		}
	}

	meta := map[string]any{"app": "respack", "format": "RGBA8888", "scale": "1"}
	if len(pages) == 1 {
		meta["image"] = pageNames[0]
		meta["size"] = map[string]any{"w": pages[0].Rect.Dx(), "h": pages[0].Rect.Dy()}
		return map[string]any{"frames": frames[0], "meta": meta}
	}

	textures := make([]any, len(pages))
	for i, img := range pages {
		textures[i] = map[string]any{
			"image":  pageNames[i],
			"format": "RGBA8888",
			"size":   map[string]any{"w": img.Rect.Dx(), "h": img.Rect.Dy()},
			"scale":  1,
			"frames": frames[i],
		}
	}
	return map[string]any{"textures": textures, "meta": meta}
}
