// Package atlas packs sprites into texture pages and writes a TexturePacker
// compatible JSON descriptor for them.
package atlas

import (
	"errors"
	"fmt"
	"image"
)

// ErrTooLarge reports a rectangle that cannot fit on an empty page.
var ErrTooLarge = errors.New("rectangle larger than page")

// Shelf places rectangles row by row onto fixed size pages, opening a new
// page when the current one is full.
type Shelf struct {
	width, height int
	padding       int
	pages         []*shelfPage
}

type shelfPage struct {
	x, y, rowHeight int
	used            image.Point
}

// NewShelf returns a packer for pages of width x height with padding pixels
// between neighbouring rectangles.
func NewShelf(width, height, padding int) *Shelf {
	return &Shelf{width: width, height: height, padding: padding}
}

// Place reserves a w x h rectangle and returns its page and top-left corner.
func (s *Shelf) Place(w, h int) (int, image.Point, error) {
	if w > s.width || h > s.height {
		return 0, image.Point{}, fmt.Errorf("%dx%d on %dx%d page: %w", w, h, s.width, s.height, ErrTooLarge)
	}
	if len(s.pages) == 0 {
		s.pages = append(s.pages, &shelfPage{})
	}
	p := s.pages[len(s.pages)-1]

	if p.x > 0 && p.x+w > s.width {
		p.x = 0
		p.y += p.rowHeight + s.padding
		p.rowHeight = 0
	}
	if p.y+h > s.height {
		p = &shelfPage{}
		s.pages = append(s.pages, p)
	}

	at := image.Pt(p.x, p.y)
	p.x += w + s.padding
	p.rowHeight = max(p.rowHeight, h)
	p.used.X = max(p.used.X, at.X+w)
	p.used.Y = max(p.used.Y, at.Y+h)
	return len(s.pages) - 1, at, nil
}

// Pages is the number of pages opened so far.
func (s *Shelf) Pages() int {
	return len(s.pages)
}

// Extent returns the used width and height of a page.
func (s *Shelf) Extent(page int) image.Point {
	if page < 0 || page >= len(s.pages) {
		return image.Point{}
	}
	return s.pages[page].used
}
