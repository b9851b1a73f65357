// Package syntax implements a lossless, error-tolerant XML syntax tree.
//
// Every node caches its text length. Leaves own their source text and
// composites derive theirs from their children, so Text() on the document
// reproduces the input exactly, including malformed regions.
package syntax

import (
	"errors"
	"fmt"
	"strings"

	"github.com/standardbeagle/tagsense/internal/types"
)

// ErrNotAChild is returned when a replacement names a node that is not a direct child
var ErrNotAChild = errors.New("node is not a child of the receiver")

// Node is a single element of the syntax tree
type Node struct {
	kind     Kind
	text     string // leaves only
	length   int
	parent   *Node
	children []*Node
	index    int // position in parent.children
	invalid  bool
}

// NewLeaf creates a detached leaf node holding text
func NewLeaf(kind Kind, text string) *Node {
	return &Node{kind: kind, text: text, length: len(text)}
}

// NewComposite creates a detached composite node from children.
// Children are reparented onto the new node.
func NewComposite(kind Kind, children ...*Node) *Node {
	n := &Node{kind: kind}
	for _, c := range children {
		n.appendChild(c)
	}
	n.seal()
	return n
}

// appendChild attaches c as the last child without touching cached lengths.
// Callers seal the composite once all children are in place.
func (n *Node) appendChild(c *Node) {
	c.parent = n
	c.index = len(n.children)
	n.children = append(n.children, c)
}

// seal recomputes the cached length from the direct children
func (n *Node) seal() {
	total := 0
	for _, c := range n.children {
		total += c.length
	}
	n.length = total
}

func (n *Node) Kind() Kind         { return n.kind }
func (n *Node) Parent() *Node      { return n.parent }
func (n *Node) TextLength() int    { return n.length }
func (n *Node) IsLeaf() bool       { return !n.kind.IsComposite() }
func (n *Node) ChildCount() int    { return len(n.children) }
func (n *Node) Children() []*Node  { return n.children }
func (n *Node) Child(i int) *Node  { return n.children[i] }
func (n *Node) FirstChild() *Node  { return n.childAt(0) }
func (n *Node) LastChild() *Node   { return n.childAt(len(n.children) - 1) }
func (n *Node) PrevSibling() *Node { return n.sibling(-1) }
func (n *Node) NextSibling() *Node { return n.sibling(1) }

func (n *Node) childAt(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

func (n *Node) sibling(delta int) *Node {
	if n.parent == nil || n.invalid {
		return nil
	}
	return n.parent.childAt(n.index + delta)
}

// Text returns the source text covered by the node
func (n *Node) Text() string {
	if n.IsLeaf() {
		return n.text
	}
	var sb strings.Builder
	sb.Grow(n.length)
	Walk(n, func(c *Node) bool {
		if c.IsLeaf() {
			sb.WriteString(c.text)
		}
		return true
	})
	return sb.String()
}

// StartOffsetInParent returns the node's offset relative to its parent's start
func (n *Node) StartOffsetInParent() int {
	if n.parent == nil {
		return 0
	}
	offset := 0
	for _, s := range n.parent.children[:n.index] {
		offset += s.length
	}
	return offset
}

// StartOffset returns the absolute offset of the node within its root
func (n *Node) StartOffset() int {
	offset := 0
	for c := n; c.parent != nil; c = c.parent {
		offset += c.StartOffsetInParent()
	}
	return offset
}

// TextRange returns the absolute range covered by the node
func (n *Node) TextRange() types.TextRange {
	return types.RangeFrom(n.StartOffset(), n.length)
}

// Root returns the topmost ancestor
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Valid reports whether the node is still part of a live tree. A node
// becomes invalid when it, or any of its ancestors, has been replaced.
func (n *Node) Valid() bool {
	for c := n; c != nil; c = c.parent {
		if c.invalid {
			return false
		}
	}
	return true
}

// ReplaceChild swaps old for repl and propagates the length change up to the root.
// The old node is invalidated.
func (n *Node) ReplaceChild(old, repl *Node) error {
	if old == nil || old.parent != n || old.invalid || n.childAt(old.index) != old {
		return ErrNotAChild
	}
	delta := repl.length - old.length

	repl.parent = n
	repl.index = old.index
	n.children[old.index] = repl
	old.invalid = true

	for p := n; p != nil; p = p.parent {
		p.length += delta
	}
	return nil
}

func (n *Node) String() string {
	r := n.TextRange()
	if n.IsLeaf() {
		return fmt.Sprintf("%s%s %q", n.kind, r, n.text)
	}
	return fmt.Sprintf("%s%s", n.kind, r)
}

// OffsetFromEnd returns the distance from the end of composite back to the end
// of stop, summing the lengths of the siblings that follow stop. When stop is
// not a child of composite the whole composite length is returned.
func OffsetFromEnd(composite, stop *Node) int {
	diff := 0
	for c := composite.LastChild(); c != nil && c != stop; c = c.PrevSibling() {
		diff += c.length
	}
	return diff
}

// Walk visits n and its descendants in document order. Returning false from
// visit skips the node's children.
func Walk(n *Node, visit func(*Node) bool) {
	stack := []*Node{n}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(c) {
			continue
		}
		for i := len(c.children) - 1; i >= 0; i-- {
			stack = append(stack, c.children[i])
		}
	}
}

// LeafAt returns the leaf covering offset. At a boundary between two leaves
// the leaf starting at offset wins; an offset equal to the root length
// returns the last leaf.
func LeafAt(root *Node, offset int) *Node {
	if offset < 0 || offset > root.length {
		return nil
	}
	n := root
	for !n.IsLeaf() {
		var next *Node
		pos := 0
		for _, c := range n.children {
			if offset < pos+c.length || (c.index == len(n.children)-1 && offset == pos+c.length) {
				next = c
				break
			}
			pos += c.length
		}
		if next == nil {
			return nil
		}
		offset -= pos
		n = next
	}
	return n
}

// AncestorOfKind returns the nearest ancestor of n (n included) with the given kind
func AncestorOfKind(n *Node, kind Kind) *Node {
	for c := n; c != nil; c = c.parent {
		if c.kind == kind {
			return c
		}
	}
	return nil
}
