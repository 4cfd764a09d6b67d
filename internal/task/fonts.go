package task

import (
	"context"
	"image/color"

	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/respack/internal/flags"
	"github.com/agentic-research/respack/internal/fontpack"
	"github.com/agentic-research/respack/internal/logging"
	"github.com/agentic-research/respack/internal/resource"
)

// Fonts rasterizes TrueType and OpenType files into bitmap fonts.
//
// Flags: a size (required, first match), any number of code point ranges,
// "fg#" fill colour (first match), "outline W RRGGBBAA [straight]" (first
// match) and "bg#" background colour (last match).
type Fonts struct{}

func (Fonts) Name() string { return "fonts" }

func (Fonts) Contract() Contract {
	return Contract{
		Expects:  ".ttf or .otf file with a size flag",
		Produces: "<base>.fnt descriptor and <base>.png pages in the parent",
	}
}

func (Fonts) Operate(ctx context.Context, env *Env, n *resource.Node) Outcome {
	if n.IsDir() || !n.HasExt("ttf", "otf") {
		return Pass()
	}
	out := Claim()

	params, bg, ok := fontParams(n.Flags(), &out)
	if !ok {
		return out
	}
	params.Name = n.Base()

	folder, err := env.Tree.NewFolder("font-" + n.Base())
	if err != nil {
		out.Error("font staging failed", logging.FieldError, err)
		return out
	}
	outputs, err := env.Fonts.Rasterize(ctx, n.Location(), folder, params)
	if err != nil {
		out.Error("font conversion failed", logging.FieldError, err)
		return out
	}

	pages := len(outputs) - 1
	switch {
	case pages <= 0:
		out.Warn("font produced no pages")
	case pages > 1:
		out.Warn("font produced more than one page", "pages", pages)
	}

	_, err = replace(n, outputs, func() error {
		for _, loc := range outputs {
			if !isPNG(loc) {
				continue
			}
			if err := env.Images.Clamp(loc); err != nil {
				return err
			}
			if bg != nil {
				if err := env.Images.PreBlend(loc, *bg); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		out.Error("font output rejected, source restored", logging.FieldError, err)
		return out
	}
	out.Info("font created", "size", params.Size, "pages", pages)
	return out
}

// fontParams reads the font flags. ok is false when the font must be left
// untouched; the reason is recorded in out.
func fontParams(fl []string, out *Outcome) (p fontpack.Params, bg *color.NRGBA, ok bool) {
	size, found, err := flags.Size.First(fl)
	switch {
	case err != nil:
		out.Error("invalid font size", logging.FieldError, err)
		return p, nil, false
	case !found:
		out.Debug("no size flag, font skipped")
		return p, nil, false
	case size <= 0:
		out.Error("font size must be positive", "size", size)
		return p, nil, false
	}
	p.Size = size

	if o, found, err := flags.OutlineSpec.First(fl); err != nil {
		out.Error("invalid outline", logging.FieldError, err)
		return p, nil, false
	} else if found {
		p.Border = fontpack.Border{Width: o.Width, Color: o.Color, Straight: o.Straight}
	}

	if fg, found, err := flags.Foreground.First(fl); err != nil {
		out.Error("invalid foreground colour", logging.FieldError, err)
		return p, nil, false
	} else if found {
		p.Color = &fg
	}

	for _, token := range fl {
		if flags.Background.Matches(token) {
			out.Debug("background colour flag", "flag", token)
		}
	}
	if c, found, err := flags.Background.Last(fl); err != nil {
		out.Error("invalid background colour", logging.FieldError, err)
		return p, nil, false
	} else if found {
		bg = &c
	}

	ranges, err := flags.CodeRange.All(fl)
	if err != nil {
		out.Error("invalid code point range", logging.FieldError, err)
		return p, nil, false
	}
	for _, r := range ranges {
		if r.Empty() {
			out.Warn("empty code point range ignored", "start", r.Start, "end", r.End)
			continue
		}
		if p.CodePoints == nil {
			p.CodePoints = roaring.New()
		}
		p.CodePoints.AddRange(uint64(r.Start), uint64(r.End)+1)
	}
	return p, bg, true
}
