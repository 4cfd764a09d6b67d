package task

import (
	"context"
	"fmt"

	"github.com/agentic-research/respack/internal/flags"
	"github.com/agentic-research/respack/internal/imaging"
	"github.com/agentic-research/respack/internal/logging"
	"github.com/agentic-research/respack/internal/resource"
)

// Resize resamples images flagged "WxH", "wN" or "hN". With only one side
// given the aspect ratio is kept.
type Resize struct{}

func (Resize) Name() string { return "resize" }

func (Resize) Contract() Contract {
	return Contract{
		Expects:  "image file with WxH, wN or hN",
		Produces: "png of the requested size keeping the other flags",
	}
}

func (Resize) Operate(_ context.Context, env *Env, n *resource.Node) Outcome {
	if n.IsDir() || !imaging.IsImage(n.Ext()) {
		return Pass()
	}
	fl := n.Flags()
	if !flags.Has(flags.Dims, fl) && !flags.Has(flags.Width, fl) && !flags.Has(flags.Height, fl) {
		return Pass()
	}
	out := Claim()

	w, h, err := targetSize(env, n, fl)
	if err != nil {
		out.Error("invalid resize flags", logging.FieldError, err)
		return out
	}

	var rest []string
	for _, token := range fl {
		if flags.Dims.Matches(token) || flags.Width.Matches(token) || flags.Height.Matches(token) {
			continue
		}
		rest = append(rest, token)
	}
	name := n.ParsedName().WithFlags(rest).WithExt("png").String()

	folder, err := env.Tree.NewFolder("resize-" + n.Base())
	if err != nil {
		out.Error("resize staging failed", logging.FieldError, err)
		return out
	}
	dst := folder.Join(name)
	if err := env.Images.Resize(n.Location(), dst, w, h); err != nil {
		out.Error("resize failed", logging.FieldError, err)
		return out
	}
	if _, err := replace(n, []resource.Location{dst}, nil); err != nil {
		out.Error("resize output rejected, source restored", logging.FieldError, err)
		return out
	}
	out.Debug("resized", "width", w, "height", h)
	return out
}

func targetSize(env *Env, n *resource.Node, fl []string) (int, int, error) {
	if d, ok, err := flags.Dims.First(fl); err != nil {
		return 0, 0, err
	} else if ok {
		if d.Width <= 0 || d.Height <= 0 {
			return 0, 0, fmt.Errorf("size %dx%d must be positive", d.Width, d.Height)
		}
		return d.Width, d.Height, nil
	}

	w, hasW, err := flags.Width.First(fl)
	if err != nil {
		return 0, 0, err
	}
	h, hasH, err := flags.Height.First(fl)
	if err != nil {
		return 0, 0, err
	}
	if (hasW && w <= 0) || (hasH && h <= 0) {
		return 0, 0, fmt.Errorf("size must be positive")
	}
	if hasW && hasH {
		return w, h, nil
	}

	src, err := env.Images.Size(n.Location())
	if err != nil {
		return 0, 0, err
	}
	if src.X <= 0 || src.Y <= 0 {
		return 0, 0, fmt.Errorf("source is empty")
	}
	if hasW {
		return w, max(1, (src.Y*w+src.X/2)/src.X), nil
	}
	return max(1, (src.X*h+src.Y/2)/src.Y), h, nil
}
