// Package namespace builds and resolves dot-delimited paths in a tree of nested maps.
package namespace

import (
	"strings"
	"sync"
)

// Node is a mapping node in the tree.
type Node map[string]any

// Tree is a namespace root that is safe for concurrent use.
type Tree struct {
	mu   sync.RWMutex
	root Node
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{root: Node{}}
}

// NewWithRoot wraps an existing node. The node is mutated by later builds.
func NewWithRoot(root Node) *Tree {
	if root == nil {
		root = Node{}
	}
	return &Tree{root: root}
}

// Root returns the root node. Callers must not mutate it while the tree is shared.
func (t *Tree) Root() Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root
}

// Build creates every node along path and assigns leaf to the terminal
// segment when leaf is non-nil. It returns the value at the terminal segment.
func (t *Tree) Build(path string, leaf any) any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Build(t.root, path, leaf)
}

// Define ensures path exists as a mapping node and returns it.
func (t *Tree) Define(path string) Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, _ := asNode(Build(t.root, path, nil))
	return n
}

// Lookup resolves path without creating anything.
func (t *Tree) Lookup(path string) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Lookup(t.root, path)
}

// Using copies the value at path into dst under the same path.
// It reports false when path does not resolve in t.
func (t *Tree) Using(path string, dst *Tree) bool {
	v, ok := t.Lookup(path)
	if !ok {
		return false
	}
	if dst == t {
		return true
	}
	dst.Build(path, v)
	return true
}

// Paths lists every leaf path under the root in no particular order.
func (t *Tree) Paths() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []string
	walk(t.root, "", &out)
	return out
}

func walk(n Node, prefix string, out *[]string) {
	for k, v := range n {
		p := k
		if prefix != "" {
			p = prefix + "." + k
		}
		if child, ok := asNode(v); ok && len(child) > 0 {
			walk(child, p, out)
			continue
		}
		*out = append(*out, p)
	}
}

// Build walks path from root, creating missing nodes. A non-node value that
// sits where an intermediate node is needed is replaced by a fresh node.
func Build(root Node, path string, leaf any) any {
	segments := Split(path)
	if len(segments) == 0 {
		return root
	}

	cur := root
	last := len(segments) - 1
	for i, seg := range segments {
		if i == last && leaf != nil {
			cur[seg] = leaf
			return leaf
		}
		next, ok := asNode(cur[seg])
		if !ok {
			next = Node{}
			cur[seg] = next
		}
		cur = next
	}
	return cur
}

// Lookup walks path from root. It stops with false at the first missing segment.
func Lookup(root Node, path string) (any, bool) {
	segments := Split(path)
	if len(segments) == 0 {
		return root, root != nil
	}

	var cur any = root
	for _, seg := range segments {
		n, ok := asNode(cur)
		if !ok {
			return nil, false
		}
		cur, ok = n[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Split returns the non-empty segments of a dotted path.
func Split(path string) []string {
	raw := strings.Split(path, ".")
	segments := raw[:0]
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// asNode accepts plain maps as nodes so decoded documents can be mounted.
func asNode(v any) (Node, bool) {
	switch n := v.(type) {
	case Node:
		return n, n != nil
	case map[string]any:
		return Node(n), n != nil
	default:
		return nil, false
	}
}
