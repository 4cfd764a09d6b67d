package task

import (
	"context"

	"github.com/agentic-research/respack/internal/flags"
	"github.com/agentic-research/respack/internal/logging"
	"github.com/agentic-research/respack/internal/resource"
)

// Flatten hoists the files of nested directories into a directory flagged
// "flatten" and removes the nested directories.
type Flatten struct{}

func (Flatten) Name() string { return "flatten" }

func (Flatten) Contract() Contract {
	return Contract{
		Expects:  "directory flagged flatten",
		Produces: "the same directory holding every nested file directly",
	}
}

func (Flatten) Operate(_ context.Context, _ *Env, n *resource.Node) Outcome {
	if !n.IsDir() || !flags.Has(flags.Flatten, n.Flags()) {
		return Pass()
	}
	out := Claim()

	edit := n.Edit()
	moved := 0
	for _, c := range n.Children() {
		if !c.IsDir() {
			continue
		}
		files := nestedFiles(c)
		if err := edit.Remove(c); err != nil {
			return flattenFailed(edit, out, err)
		}
		for _, f := range files {
			if _, err := edit.Add(f.Location()); err != nil {
				return flattenFailed(edit, out, err)
			}
			moved++
		}
	}
	edit.Commit()
	if moved > 0 {
		out.Debug("flattened", "files", moved)
	}
	return out
}

func flattenFailed(edit *resource.Edit, out Outcome, err error) Outcome {
	if rerr := edit.Rollback(); rerr != nil {
		out.Error("rollback failed", logging.FieldError, rerr)
	}
	out.Error("flatten failed", logging.FieldError, err)
	return out
}

// nestedFiles lists the files below dir in pre-order. Directories flagged
// ignore contribute nothing; they go away with the directory holding them.
func nestedFiles(dir *resource.Node) []*resource.Node {
	if flags.Has(flags.Ignore, dir.Flags()) {
		return nil
	}
	var files []*resource.Node
	for _, c := range dir.Children() {
		if c.IsDir() {
			files = append(files, nestedFiles(c)...)
			continue
		}
		files = append(files, c)
	}
	return files
}
