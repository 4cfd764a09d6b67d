package resource

import (
	"fmt"
	"io"
	"path"

	billy "github.com/go-git/go-billy/v5"

	"github.com/agentic-research/respack/api"
)

// Flush writes every live node beneath the root into out at dir, stripping
// flags from the names. It returns one Asset per entry written, in pre-order.
// When two entries map to the same output path the later one wins.
func (t *Tree) Flush(out billy.Filesystem, dir string) ([]api.Asset, error) {
	if err := out.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}

	var assets []api.Asset
	index := make(map[string]int)
	root := t.Root()

	var flush func(n *Node, rel string) error
	flush = func(n *Node, rel string) error {
		for _, c := range n.Children() {
			if c.Removed() {
				continue
			}
			childRel := path.Join(rel, c.OutputName())
			asset := api.Asset{
				Path:   childRel,
				Parent: rel,
				Name:   c.OutputName(),
				Dir:    c.IsDir(),
				Flags:  c.Flags(),
				Origin: c.loc.Path,
			}
			target := out.Join(dir, childRel)
			if c.IsDir() {
				if err := out.MkdirAll(target, 0o755); err != nil {
					return fmt.Errorf("create %s: %w", childRel, err)
				}
			} else {
				size, err := copyFile(c.loc, out, target)
				if err != nil {
					return fmt.Errorf("write %s: %w", childRel, err)
				}
				asset.Size = size
			}

			if i, dup := index[childRel]; dup {
				t.logger.Warn("output collision, later entry wins",
					"path", childRel, "previous", assets[i].Origin, "origin", asset.Origin)
				assets[i] = asset
			} else {
				index[childRel] = len(assets)
				assets = append(assets, asset)
			}

			if c.IsDir() {
				if err := flush(c, childRel); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := flush(root, ""); err != nil {
		return nil, err
	}
	return assets, nil
}

func copyFile(src Location, out billy.Filesystem, target string) (int64, error) {
	in, err := src.Open()
	if err != nil {
		return 0, err
	}
	defer func() { _ = in.Close() }()

	f, err := Location{FS: out, Path: target}.Create()
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, in)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}
