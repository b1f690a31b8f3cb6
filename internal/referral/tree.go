// Package referral walks a user's referral downline and computes what each
// node should display.
//
// Walking the tree and presenting it are kept apart: the walk is an iterator,
// and the presentation layer ranges over (node, depth, earnings, relationship)
// entries and draws each one independently, knowing nothing about tree shape.
//
// WHY iter.Seq?
// The traversal must be lazy (the UI can stop rendering early), finite, and
// restartable — ranging over the same sequence twice yields identical entries,
// with no hidden cursor. That is exactly the contract of a Go iterator
// function: each `for range` starts a fresh walk.
package referral

import (
	"iter"

	"github.com/rootzapp/storefront/internal/model"
)

// Relationship classifies a visited node relative to the viewing user.
type Relationship int

const (
	RelationSelf     Relationship = iota // the viewer's own node
	RelationDirect                       // immediate child of the viewer
	RelationIndirect                     // depth >= 2 below the viewer
)

// String returns the display label the UI shows under the node.
func (r Relationship) String() string {
	switch r {
	case RelationSelf:
		return "You"
	case RelationDirect:
		return "Direct referral"
	default:
		return "Indirect referral"
	}
}

// MarshalJSON emits the display label, quoted.
func (r Relationship) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

// Entry is one visited node together with everything the renderer needs.
type Entry struct {
	Node         *model.ReferralNode `json:"node"`
	Depth        int                 `json:"depth"` // relative to the viewer, 0 = viewer
	Earnings     string              `json:"earnings,omitempty"`
	ShowEarnings bool                `json:"showEarnings"`
	Relationship Relationship        `json:"relationship"`
}

// Traverse yields the viewer's subtree in depth-first pre-order, children in
// the order the upstream sent them.
//
// viewer is normally the root itself; passing a descendant restricts the walk
// to that descendant's subtree (the "drill into a sub-node" case). The viewer
// is located inside root by ID — if it is not present, the sequence is empty.
//
// Earnings rules (one figure per node, never merged):
//   - The viewer's own node shows the wallet's total earned, or nothing if the
//     viewer has no wallet yet.
//   - Any other node shows the amount the viewer earned from it, and only when
//     that amount normalizes strictly positive. Zero, missing, and malformed
//     figures suppress the earnings line entirely — suppression is NOT the
//     same as displaying "0.00".
func Traverse(root, viewer *model.ReferralNode) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		if root == nil {
			return
		}
		start := root
		if viewer != nil && viewer.ID != root.ID {
			start = findNode(root, viewer.ID)
			if start == nil {
				return
			}
		}
		walk(start, 0, yield)
	}
}

// walk visits node and its descendants pre-order. Returns false once the
// consumer stops.
func walk(node *model.ReferralNode, depth int, yield func(Entry) bool) bool {
	if !yield(makeEntry(node, depth)) {
		return false
	}
	for _, child := range node.Children {
		if !walk(child, depth+1, yield) {
			return false
		}
	}
	return true
}

func makeEntry(node *model.ReferralNode, depth int) Entry {
	e := Entry{
		Node:         node,
		Depth:        depth,
		Relationship: relationshipAt(depth),
	}

	if depth == 0 {
		// The viewer's card shows their own lifetime total, wallet permitting.
		if node.Wallet != nil {
			e.Earnings = node.Wallet.MoneyEarned.Format()
			e.ShowEarnings = true
		}
		return e
	}

	if node.AmountEarned.Positive() {
		e.Earnings = node.AmountEarned.Format()
		e.ShowEarnings = true
	}
	return e
}

func relationshipAt(depth int) Relationship {
	switch depth {
	case 0:
		return RelationSelf
	case 1:
		return RelationDirect
	default:
		return RelationIndirect
	}
}

// findNode locates id within the tree rooted at node, pre-order.
// O(N) per lookup, which is fine: a single user's downline is small.
func findNode(node *model.ReferralNode, id string) *model.ReferralNode {
	if node.ID == id {
		return node
	}
	for _, child := range node.Children {
		if found := findNode(child, id); found != nil {
			return found
		}
	}
	return nil
}

// Collect drains a traversal into a slice. Handlers use it to serve the
// flattened tree as JSON; tests use it to compare whole sequences.
func Collect(seq iter.Seq[Entry]) []Entry {
	var entries []Entry
	for e := range seq {
		entries = append(entries, e)
	}
	return entries
}
