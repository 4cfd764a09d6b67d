// Package ingest discovers the source directory into a resource tree.
package ingest

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	billy "github.com/go-git/go-billy/v5"

	"github.com/agentic-research/respack/internal/logging"
	"github.com/agentic-research/respack/internal/resource"
)

// DefaultIgnore skips hidden entries and Windows thumbnail caches.
var DefaultIgnore = []string{".*", "Thumbs.db"}

// Options configures discovery.
type Options struct {
	// Ignore holds filepath.Match patterns tested against entry names.
	Ignore []string
	// Staging is where tasks write their outputs. Nil keeps them in memory.
	Staging    billy.Filesystem
	StagingDir string
	Logger     *slog.Logger
}

// Summary counts what discovery found.
type Summary struct {
	Files   int
	Dirs    int
	Flagged int
	ByExt   map[string]int
}

// Discover builds the tree rooted at root.
func Discover(root resource.Location, opts Options) (*resource.Tree, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.Component(logger, "ingest")

	filter, err := IgnoreFilter(opts.Ignore)
	if err != nil {
		return nil, err
	}
	treeOpts := []resource.Option{resource.WithFilter(filter), resource.WithLogger(logger)}
	if opts.Staging != nil {
		dir := opts.StagingDir
		if dir == "" {
			dir = "/staging"
		}
		treeOpts = append(treeOpts, resource.WithStaging(opts.Staging, dir))
	}

	tree, err := resource.NewTree(root, treeOpts...)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", root, err)
	}

	sum := Summarize(tree)
	logger.Info("source discovered", "root", root.String(), "files", sum.Files, "dirs", sum.Dirs, "flagged", sum.Flagged)
	return tree, nil
}

// IgnoreFilter returns a filter rejecting names that match any pattern.
func IgnoreFilter(patterns []string) (resource.Filter, error) {
	for _, p := range patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return nil, fmt.Errorf("ignore pattern %q: %w", p, err)
		}
	}
	return func(name string, _ bool) bool {
		for _, p := range patterns {
			if ok, _ := filepath.Match(p, name); ok {
				return false
			}
		}
		return true
	}, nil
}

// Summarize counts the live nodes below the root.
func Summarize(tree *resource.Tree) Summary {
	sum := Summary{ByExt: map[string]int{}}
	_ = tree.Walk(func(n *resource.Node) error {
		if n.Parent() == nil {
			return nil
		}
		if len(n.Flags()) > 0 {
			sum.Flagged++
		}
		if n.IsDir() {
			sum.Dirs++
			return nil
		}
		sum.Files++
		sum.ByExt[strings.ToLower(n.Ext())]++
		return nil
	})
	return sum
}
