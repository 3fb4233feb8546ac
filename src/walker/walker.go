// Package walker traverses an accessibility tree under hard depth and breadth
// ceilings. Trees rendered by web or canvas engines can be arbitrarily deep,
// wide or even cyclic, so every walk is finite regardless of the tree's shape.
package walker

import (
	"context"
	"iter"
	"log"

	"selection-context/src/accessibility"
)

const (
	DefaultMaxDepth    = 6
	DefaultMaxChildren = 15
)

// Bounds caps a walk. The root is depth 0; nodes deeper than MaxDepth are never
// visited and at most MaxChildren nodes are visited on any single level.
type Bounds struct {
	MaxDepth    int
	MaxChildren int
}

// DefaultBounds returns the empirically chosen defaults (depth 6, 15 per level).
func DefaultBounds() Bounds {
	return Bounds{MaxDepth: DefaultMaxDepth, MaxChildren: DefaultMaxChildren}
}

// Normalize replaces non-positive fields with the defaults.
func (b Bounds) Normalize() Bounds {
	if b.MaxDepth <= 0 {
		b.MaxDepth = DefaultMaxDepth
	}
	if b.MaxChildren <= 0 {
		b.MaxChildren = DefaultMaxChildren
	}
	return b
}

// Candidate is one visited node with its depth below the walk root.
type Candidate struct {
	Node  accessibility.Node
	Depth int
}

// Walk yields the tree rooted at root in pre-order. The sequence is lazy and
// restartable: each range over it walks again from the root. A node whose
// children cannot be enumerated is treated as a leaf. The walk stops early
// when ctx is done.
func Walk(ctx context.Context, root accessibility.Node, b Bounds) iter.Seq[Candidate] {
	b = b.Normalize()
	return func(yield func(Candidate) bool) {
		if root == nil {
			return
		}
		w := &walk{ctx: ctx, bounds: b, perLevel: make([]int, b.MaxDepth+1), yield: yield}
		w.visit(root, 0)
	}
}

type walk struct {
	ctx      context.Context
	bounds   Bounds
	perLevel []int
	yield    func(Candidate) bool
	stopped  bool
}

func (w *walk) visit(n accessibility.Node, depth int) {
	if w.stopped || w.ctx.Err() != nil {
		w.stopped = true
		return
	}
	if w.perLevel[depth] >= w.bounds.MaxChildren {
		return
	}
	w.perLevel[depth]++
	if !w.yield(Candidate{Node: n, Depth: depth}) {
		w.stopped = true
		return
	}
	if depth == w.bounds.MaxDepth {
		return
	}

	room := w.bounds.MaxChildren - w.perLevel[depth+1]
	if room <= 0 {
		return
	}
	children, err := n.Children(room)
	if err != nil {
		log.Printf("walker: children unavailable at depth %d (%v); treating as leaf", depth, err)
		return
	}
	for _, c := range children {
		if c == nil {
			continue
		}
		w.visit(c, depth+1)
		if w.stopped {
			return
		}
	}
}
