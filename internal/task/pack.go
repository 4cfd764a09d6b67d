package task

import (
	"context"
	"path"

	"github.com/agentic-research/respack/internal/atlas"
	"github.com/agentic-research/respack/internal/flags"
	"github.com/agentic-research/respack/internal/imaging"
	"github.com/agentic-research/respack/internal/logging"
	"github.com/agentic-research/respack/internal/resource"
)

// Pack replaces a directory flagged "pack" with a texture atlas of the images
// below it. It runs after the directory's children so that they are already
// resized and blended. Other files are moved to the parent.
type Pack struct{}

func (Pack) Name() string { return "pack" }

func (Pack) Contract() Contract {
	return Contract{
		Expects:   "directory flagged pack, optionally with a page size",
		Produces:  "<base>.json atlas and <base>.png pages in the parent; other files moved to the parent",
		PostOrder: true,
	}
}

func (Pack) Operate(context.Context, *Env, *resource.Node) Outcome { return Pass() }

func (Pack) Leave(ctx context.Context, env *Env, n *resource.Node) Outcome {
	if !n.IsDir() || n.Parent() == nil || !flags.Has(flags.Pack, n.Flags()) {
		return Pass()
	}
	out := Claim()

	opts := env.Atlas
	if size, ok, err := flags.Size.First(n.Flags()); err != nil {
		out.Error("invalid page size", logging.FieldError, err)
		return out
	} else if ok {
		if size <= 0 {
			out.Error("page size must be positive", "size", size)
			return out
		}
		opts.MaxPageSize = size
	}

	var (
		sprites []atlas.Sprite
		others  []resource.Location
	)
	collectSprites(n, "", &sprites, &others)
	if len(sprites) == 0 {
		out.Warn("pack directory has no images")
		return out
	}

	folder, err := env.Tree.NewFolder("atlas-" + n.Base())
	if err != nil {
		out.Error("atlas staging failed", logging.FieldError, err)
		return out
	}
	outputs, err := env.Atlases.Pack(ctx, sprites, folder, n.Base(), opts)
	if err != nil {
		out.Error("atlas packing failed", logging.FieldError, err)
		return out
	}
	if _, err := replace(n, append(outputs, others...), nil); err != nil {
		out.Error("atlas output rejected, directory restored", logging.FieldError, err)
		return out
	}
	out.Info("atlas packed", "sprites", len(sprites), "pages", len(outputs)-1)
	return out
}

// collectSprites gathers the images below dir, named by their flag-free path
// relative to the packed directory, and the locations of every other file.
func collectSprites(dir *resource.Node, prefix string, sprites *[]atlas.Sprite, others *[]resource.Location) {
	for _, c := range dir.Children() {
		switch {
		case c.IsDir():
			collectSprites(c, path.Join(prefix, c.OutputName()), sprites, others)
		case imaging.IsImage(c.Ext()):
			*sprites = append(*sprites, atlas.Sprite{Name: path.Join(prefix, c.Base()), Loc: c.Location()})
		default:
			*others = append(*others, c.Location())
		}
	}
}
