package resource

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

var (
	ErrRemoved  = errors.New("node removed")
	ErrNotChild = errors.New("not a child of this node")
	ErrNotDir   = errors.New("not a directory")
)

// NodeID indexes a node in its tree's arena.
type NodeID uint32

const noParent = ^NodeID(0)

// Filter decides whether a discovered entry becomes a node.
type Filter func(name string, isDir bool) bool

// Option configures a Tree.
type Option func(*Tree)

// WithFilter skips entries for which keep returns false, at discovery and
// whenever a directory is added later.
func WithFilter(keep Filter) Option {
	return func(t *Tree) { t.filter = keep }
}

// WithStaging sets the filesystem and directory tasks write their outputs to.
// The default is an in-memory filesystem.
func WithStaging(fs billy.Filesystem, root string) Option {
	return func(t *Tree) {
		t.staging = fs
		t.stagingRoot = root
	}
}

// WithLogger sets the logger used for flush warnings.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tree) { t.logger = l }
}

// Tree is the whole resource hierarchy of one run.
type Tree struct {
	mu      sync.Mutex
	nodes   []*Node
	removed *roaring.Bitmap
	root    NodeID

	staging     billy.Filesystem
	stagingRoot string
	folders     int

	filter Filter
	logger *slog.Logger
}

// NewTree discovers the directory at root and everything beneath it. It also
// creates the staging area tasks obtain output folders from.
func NewTree(root Location, opts ...Option) (*Tree, error) {
	t := &Tree{
		removed:     roaring.New(),
		stagingRoot: "/staging",
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.staging == nil {
		t.staging = memfs.New()
	}
	if t.logger == nil {
		t.logger = slog.New(slog.DiscardHandler)
	}

	info, err := root.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s: %w", root, ErrNotDir)
	}
	if err := t.staging.MkdirAll(t.stagingRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create staging area: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.newNode(noParent, root, true, "")
	t.root = n.id
	if err := t.loadChildren(n); err != nil {
		return nil, err
	}
	return t, nil
}

// Root returns the root node.
func (t *Tree) Root() *Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nodes[t.root]
}

// Node returns the node with the given id, removed or not.
func (t *Tree) Node(id NodeID) *Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// Len is the number of nodes ever created, removed ones included.
func (t *Tree) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.nodes)
}

// RemovedCount is the number of removed nodes.
func (t *Tree) RemovedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return int(t.removed.GetCardinality())
}

// Staging returns the staging filesystem.
func (t *Tree) Staging() billy.Filesystem {
	return t.staging
}

// NewFolder creates a fresh, empty folder in the staging area.
func (t *Tree) NewFolder(prefix string) (Location, error) {
	t.mu.Lock()
	t.folders++
	n := t.folders
	t.mu.Unlock()

	loc := Location{FS: t.staging, Path: t.staging.Join(t.stagingRoot, fmt.Sprintf("%04d-%s", n, prefix))}
	if err := t.staging.MkdirAll(loc.Path, 0o755); err != nil {
		return Location{}, fmt.Errorf("create staging folder: %w", err)
	}
	return loc, nil
}

// Walk visits every live node in pre-order. Returning filepath.SkipDir from
// fn skips a directory's children.
func (t *Tree) Walk(fn func(n *Node) error) error {
	err := t.walk(t.Root(), fn)
	if errors.Is(err, filepath.SkipDir) {
		return nil
	}
	return err
}

func (t *Tree) walk(n *Node, fn func(n *Node) error) error {
	if n.Removed() {
		return nil
	}
	if err := fn(n); err != nil {
		if errors.Is(err, filepath.SkipDir) && n.IsDir() {
			return nil
		}
		return err
	}
	for _, c := range n.Children() {
		if err := t.walk(c, fn); err != nil {
			return err
		}
	}
	return nil
}

// Close discards the staging area.
func (t *Tree) Close() error {
	if err := util.RemoveAll(t.staging, t.stagingRoot); err != nil {
		return fmt.Errorf("remove staging area: %w", err)
	}
	return nil
}

// newNode must be called with t.mu held.
func (t *Tree) newNode(parent NodeID, loc Location, isDir bool, raw string) *Node {
	n := &Node{
		tree:   t,
		id:     NodeID(len(t.nodes)),
		parent: parent,
		raw:    raw,
		isDir:  isDir,
		loc:    loc,
	}
	n.name = parseName(raw, isDir)
	t.nodes = append(t.nodes, n)
	return n
}

// loadChildren must be called with t.mu held.
func (t *Tree) loadChildren(n *Node) error {
	entries, err := n.loc.FS.ReadDir(n.loc.Path)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", n.loc, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		if t.filter != nil && !t.filter(e.Name(), e.IsDir()) {
			continue
		}
		child := t.newNode(n.id, n.loc.Join(e.Name()), e.IsDir(), e.Name())
		n.children = append(n.children, child.id)
		if child.isDir {
			if err := t.loadChildren(child); err != nil {
				return err
			}
		}
	}
	return nil
}

// markRemoved flags n and its subtree, returning the ids newly marked.
// Must be called with t.mu held.
func (t *Tree) markRemoved(n *Node) []NodeID {
	var marked []NodeID
	var mark func(n *Node)
	mark = func(n *Node) {
		if t.removed.CheckedAdd(uint32(n.id)) {
			marked = append(marked, n.id)
		}
		for _, c := range n.children {
			mark(t.nodes[c])
		}
	}
	mark(n)
	return marked
}
