package task

import (
	"context"

	"github.com/agentic-research/respack/internal/flags"
	"github.com/agentic-research/respack/internal/imaging"
	"github.com/agentic-research/respack/internal/logging"
	"github.com/agentic-research/respack/internal/resource"
)

// PreBlend composites the last "bg#" colour under an image's alpha.
type PreBlend struct{}

func (PreBlend) Name() string { return "preblend" }

func (PreBlend) Contract() Contract {
	return Contract{
		Expects:  "image file with a bg# colour",
		Produces: "png blended over the colour, bg# flags dropped",
	}
}

func (PreBlend) Operate(_ context.Context, env *Env, n *resource.Node) Outcome {
	if n.IsDir() || !imaging.IsImage(n.Ext()) {
		return Pass()
	}
	fl := n.Flags()
	bg, ok, err := flags.Background.Last(fl)
	if !ok {
		return Pass()
	}
	out := Claim()
	if err != nil {
		out.Error("invalid background colour", logging.FieldError, err)
		return out
	}

	var rest []string
	for _, token := range fl {
		if !flags.Background.Matches(token) {
			rest = append(rest, token)
		}
	}
	folder, err := env.Tree.NewFolder("preblend-" + n.Base())
	if err != nil {
		out.Error("preblend staging failed", logging.FieldError, err)
		return out
	}
	dst := folder.Join(n.ParsedName().WithFlags(rest).WithExt("png").String())
	if err := env.Images.Convert(n.Location(), dst); err != nil {
		out.Error("preblend failed", logging.FieldError, err)
		return out
	}
	if err := env.Images.PreBlend(dst, bg); err != nil {
		out.Error("preblend failed", logging.FieldError, err)
		return out
	}
	if _, err := replace(n, []resource.Location{dst}, nil); err != nil {
		out.Error("preblend output rejected, source restored", logging.FieldError, err)
		return out
	}
	out.Debug("pre-blended", "background", flags.FormatHexColor(bg))
	return out
}
