// Package resource models the mutable asset tree a pipeline pass rewrites.
//
// Nodes live in an arena owned by the Tree and refer to their parent and
// children by NodeID. The parent link is a navigation aid only; ownership runs
// from the tree to its nodes. A node's flags are parsed from its name once,
// when the node is created, and never change.
//
// Removing a node marks its whole subtree removed in a roaring bitmap. Removed
// nodes are skipped by traversal and by Flush. Every entry is backed by a
// Location inside a go-billy filesystem: the source tree, the staging area the
// tasks write into, or anything else a caller mounts.
package resource
