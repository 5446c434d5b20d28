package pred

import (
	"strings"
)

// Inspector is implemented by predicates which can describe themselves.
type Inspector interface {
	Inspect() Tree
}

// Tree is the labelled evaluation tree of a predicate. Value is the result
// of evaluating the sub-predicate when the tree was built.
type Tree struct {
	Label    string
	Value    bool
	Children []Tree
}

// Leaf builds a tree without children.
func Leaf(label string, value bool) Tree {
	return Tree{Label: label, Value: value}
}

// Node builds a tree with the given children.
func Node(label string, value bool, children ...Tree) Tree {
	return Tree{Label: label, Value: value, Children: children}
}

// Inspect renders p into a Tree. Predicates which do not implement Inspector
// are shown as an opaque leaf.
func Inspect(p Predicate) Tree {
	if i, ok := p.(Inspector); ok {
		return i.Inspect()
	}
	return Leaf("<opaque>", p.Eval())
}

// Walk visits t depth first. Visiting stops descending into a subtree when
// fn returns false.
func (t Tree) Walk(fn func(depth int, t Tree) bool) {
	t.walk(0, fn)
}

func (t Tree) walk(depth int, fn func(int, Tree) bool) {
	if !fn(depth, t) {
		return
	}
	for _, c := range t.Children {
		c.walk(depth+1, fn)
	}
}

// Find returns the first subtree, depth first, with the given label.
func (t Tree) Find(label string) (Tree, bool) {
	var (
		found Tree
		ok    bool
	)
	t.Walk(func(_ int, st Tree) bool {
		if ok {
			return false
		}
		if st.Label == label {
			found, ok = st, true
			return false
		}
		return true
	})
	return found, ok
}

func (t Tree) String() string {
	var sb strings.Builder
	t.Walk(func(depth int, st Tree) bool {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(st.Label)
		if st.Value {
			sb.WriteString(": true\n")
		} else {
			sb.WriteString(": false\n")
		}
		return true
	})
	return sb.String()
}
