package task

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/agentic-research/respack/internal/resource"
)

var errRoot = errors.New("cannot replace the root")

// replace swaps n for outputs in n's parent. prepare, when set, runs after n
// is detached and before the outputs become visible. Any failure restores n.
func replace(n *resource.Node, outputs []resource.Location, prepare func() error) ([]*resource.Node, error) {
	parent := n.Parent()
	if parent == nil {
		return nil, errRoot
	}
	edit := parent.Edit()
	if err := edit.Remove(n); err != nil {
		return nil, err
	}
	fail := func(err error) ([]*resource.Node, error) {
		if rerr := edit.Rollback(); rerr != nil {
			return nil, errors.Join(err, rerr)
		}
		return nil, err
	}
	if prepare != nil {
		if err := prepare(); err != nil {
			return fail(err)
		}
	}
	for _, loc := range outputs {
		if _, err := edit.Add(loc); err != nil {
			return fail(fmt.Errorf("add %s: %w", loc, err))
		}
	}
	added := edit.Added()
	edit.Commit()
	return added, nil
}

// isPNG reports whether loc names a png file.
func isPNG(loc resource.Location) bool {
	return strings.EqualFold(path.Ext(loc.Path), ".png")
}
