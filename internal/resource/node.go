package resource

import (
	"fmt"
	"path"
	"strings"

	billy "github.com/go-git/go-billy/v5"

	"github.com/agentic-research/respack/internal/flags"
)

// Node is a file or directory in the tree.
type Node struct {
	tree     *Tree
	id       NodeID
	parent   NodeID
	raw      string
	name     flags.Name
	isDir    bool
	loc      Location
	children []NodeID
	// version counts changes to children.
	version  uint64
}

func parseName(raw string, isDir bool) flags.Name {
	if raw == "" {
		return flags.Name{Dir: isDir}
	}
	return flags.SplitName(raw, isDir)
}

func (n *Node) ID() NodeID             { return n.id }
func (n *Node) Tree() *Tree            { return n.tree }
func (n *Node) IsDir() bool            { return n.isDir }
func (n *Node) Location() Location     { return n.loc }
func (n *Node) Name() string           { return n.raw }
func (n *Node) Base() string           { return n.name.Base }
func (n *Node) Ext() string            { return n.name.Ext }
func (n *Node) ParsedName() flags.Name { return n.name.WithFlags(n.name.Flags) }

// Flags returns the node's flag tokens in declaration order.
func (n *Node) Flags() []string {
	return append([]string(nil), n.name.Flags...)
}

// HasExt reports whether the extension equals one of exts, ignoring case.
func (n *Node) HasExt(exts ...string) bool {
	if n.isDir {
		return false
	}
	for _, e := range exts {
		if strings.EqualFold(n.name.Ext, e) {
			return true
		}
	}
	return false
}

// OutputName is the entry name written to the output bundle.
func (n *Node) OutputName() string {
	return n.name.Output()
}

// Open opens the backing file.
func (n *Node) Open() (billy.File, error) {
	return n.loc.Open()
}

// Parent returns the enclosing directory, or nil for the root.
func (n *Node) Parent() *Node {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	if n.parent == noParent {
		return nil
	}
	return n.tree.nodes[n.parent]
}

// Children returns a snapshot of the current child sequence.
func (n *Node) Children() []*Node {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	out := make([]*Node, len(n.children))
	for i, id := range n.children {
		out[i] = n.tree.nodes[id]
	}
	return out
}

// Snapshot returns the current child sequence together with its version.
func (n *Node) Snapshot() ([]*Node, uint64) {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	out := make([]*Node, len(n.children))
	for i, id := range n.children {
		out[i] = n.tree.nodes[id]
	}
	return out, n.version
}

// Version changes whenever a child is added or removed.
func (n *Node) Version() uint64 {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return n.version
}

// Removed reports whether the node or one of its ancestors was removed.
func (n *Node) Removed() bool {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return n.tree.removed.Contains(uint32(n.id))
}

// Path is the slash separated path of raw names from the root.
func (n *Node) Path() string {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	var parts []string
	for cur := n; cur.parent != noParent; cur = n.tree.nodes[cur.parent] {
		parts = append(parts, cur.raw)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return path.Join(parts...)
}

func (n *Node) String() string {
	if p := n.Path(); p != "" {
		return p
	}
	return "<root>"
}

// AddChild appends a node built from loc. Its flags are parsed immediately
// and, for a directory, its contents are discovered too.
func (n *Node) AddChild(loc Location) (*Node, error) {
	info, err := loc.Stat()
	if err != nil {
		return nil, fmt.Errorf("add %s to %s: %w", loc, n, err)
	}

	t := n.tree
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.removed.Contains(uint32(n.id)) {
		return nil, fmt.Errorf("add %s to %s: %w", loc, n.raw, ErrRemoved)
	}
	if !n.isDir {
		return nil, fmt.Errorf("add %s to %s: %w", loc, n.raw, ErrNotDir)
	}

	child := t.newNode(n.id, loc, info.IsDir(), loc.Name())
	if child.isDir {
		if err := t.loadChildren(child); err != nil {
			t.markRemoved(child)
			return nil, err
		}
	}
	n.children = append(n.children, child.id)
	n.version++
	return child, nil
}

// RemoveChild detaches child and marks it and its subtree removed.
func (n *Node) RemoveChild(child *Node) error {
	t := n.tree
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _, err := n.removeChildLocked(child)
	return err
}

// Remove detaches n from its parent.
func (n *Node) Remove() error {
	p := n.Parent()
	if p == nil {
		return fmt.Errorf("remove root: %w", ErrNotChild)
	}
	return p.RemoveChild(n)
}

// removeChildLocked returns the former index and the ids newly marked removed.
func (n *Node) removeChildLocked(child *Node) (int, []NodeID, error) {
	t := n.tree
	if t.removed.Contains(uint32(child.id)) {
		return -1, nil, fmt.Errorf("remove %s: %w", child.raw, ErrRemoved)
	}
	idx := -1
	for i, id := range n.children {
		if id == child.id {
			idx = i
			break
		}
	}
	if idx < 0 || child.parent != n.id {
		return -1, nil, fmt.Errorf("remove %s from %s: %w", child.raw, n.raw, ErrNotChild)
	}
	n.children = append(n.children[:idx], n.children[idx+1:]...)
	n.version++
	return idx, t.markRemoved(child), nil
}
