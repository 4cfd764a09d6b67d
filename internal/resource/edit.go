package resource

import "fmt"

// Edit groups mutations of one directory's child sequence so they can be
// undone together. Every change is applied immediately; Rollback reverts
// them in reverse order.
type Edit struct {
	parent  *Node
	removed []removal
	added   []*Node
}

type removal struct {
	node   *Node
	index  int
	marked []NodeID
}

// Edit starts an edit of n's children.
func (n *Node) Edit() *Edit {
	return &Edit{parent: n}
}

// Parent is the directory being edited.
func (e *Edit) Parent() *Node {
	return e.parent
}

// Remove detaches child from the edited directory.
func (e *Edit) Remove(child *Node) error {
	t := e.parent.tree
	t.mu.Lock()
	defer t.mu.Unlock()
	idx, marked, err := e.parent.removeChildLocked(child)
	if err != nil {
		return err
	}
	e.removed = append(e.removed, removal{node: child, index: idx, marked: marked})
	return nil
}

// Add appends a node built from loc to the edited directory.
func (e *Edit) Add(loc Location) (*Node, error) {
	n, err := e.parent.AddChild(loc)
	if err != nil {
		return nil, err
	}
	e.added = append(e.added, n)
	return n, nil
}

// Added returns the nodes added so far.
func (e *Edit) Added() []*Node {
	return append([]*Node(nil), e.added...)
}

// Rollback detaches every node the edit added and restores every node it
// removed at its former position.
func (e *Edit) Rollback() error {
	t := e.parent.tree
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := len(e.added) - 1; i >= 0; i-- {
		n := e.added[i]
		if t.removed.Contains(uint32(n.id)) {
			continue
		}
		if _, _, err := e.parent.removeChildLocked(n); err != nil {
			return fmt.Errorf("rollback %s: %w", n.raw, err)
		}
	}
	for i := len(e.removed) - 1; i >= 0; i-- {
		r := e.removed[i]
		for _, id := range r.marked {
			t.removed.Remove(uint32(id))
		}
		idx := r.index
		if idx > len(e.parent.children) {
			idx = len(e.parent.children)
		}
		children := append([]NodeID(nil), e.parent.children[:idx]...)
		children = append(children, r.node.id)
		e.parent.children = append(children, e.parent.children[idx:]...)
		e.parent.version++
	}
	e.added, e.removed = nil, nil
	return nil
}

// Commit forgets the undo log.
func (e *Edit) Commit() {
	e.added, e.removed = nil, nil
}
