// Package index provides an ordered container keyed by time spans.
//
// Keys are ordered with models.TimeSpan.Compare, so two spans that overlap
// are treated as the same key: inserting one replaces the other. Because
// overlap is not transitive, which entry survives a collision depends on
// insertion order and tree shape. Callers that need every overlapping
// record must not insert overlapping spans into one index.
package index

import (
	"iter"
	"slices"

	"github.com/tidwall/btree"

	"github.com/rewired-gh/symptomscope/internal/models"
)

// Entry is a stored key/value pair.
type Entry[T any] struct {
	Span  models.TimeSpan
	Value T
}

// IntervalIndex maps time spans to values in overlap order.
// It is not safe for concurrent writes; concurrent reads are safe once
// writes have stopped.
type IntervalIndex[T any] struct {
	tree *btree.BTreeG[Entry[T]]
}

func less[T any](a, b Entry[T]) bool {
	return a.Span.Compare(b.Span) < 0
}

// New creates an empty index.
func New[T any]() *IntervalIndex[T] {
	return &IntervalIndex[T]{
		tree: btree.NewBTreeGOptions(less[T], btree.Options{NoLocks: true}),
	}
}

// Insert stores value under span. If an existing key overlaps span along
// the search path, that entry is replaced and returned with replaced=true.
func (ix *IntervalIndex[T]) Insert(span models.TimeSpan, value T) (prev Entry[T], replaced bool) {
	return ix.tree.Set(Entry[T]{Span: span, Value: value})
}

// Len returns the number of stored entries.
func (ix *IntervalIndex[T]) Len() int {
	return ix.tree.Len()
}

// Min returns the first entry in traversal order.
func (ix *IntervalIndex[T]) Min() (Entry[T], bool) {
	return ix.tree.Min()
}

// Max returns the last entry in traversal order.
func (ix *IntervalIndex[T]) Max() (Entry[T], bool) {
	return ix.tree.Max()
}

// All yields spans and values in ascending order. The sequence can be
// ranged over any number of times.
func (ix *IntervalIndex[T]) All() iter.Seq2[models.TimeSpan, T] {
	return func(yield func(models.TimeSpan, T) bool) {
		ix.tree.Scan(func(e Entry[T]) bool {
			return yield(e.Span, e.Value)
		})
	}
}

// Values yields stored values in ascending order.
func (ix *IntervalIndex[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		ix.tree.Scan(func(e Entry[T]) bool {
			return yield(e.Value)
		})
	}
}

// Range returns, in ascending order, every entry from the earliest one
// overlapping lower up to the last one not ordered after upper. Entries
// overlapping either bound are included. If upper is ordered before lower
// the result is empty.
func (ix *IntervalIndex[T]) Range(lower, upper models.TimeSpan) []Entry[T] {
	entries := make([]Entry[T], 0)
	if upper.Compare(lower) < 0 {
		return entries
	}

	pivot := Entry[T]{Span: lower}

	// The search lands on the last stored key overlapping lower; walk back
	// over the earlier ones that overlap it too.
	ix.tree.Descend(pivot, func(e Entry[T]) bool {
		if e.Span.Compare(lower) != 0 {
			return false
		}
		entries = append(entries, e)
		return true
	})
	slices.Reverse(entries)

	landed := len(entries) > 0
	ix.tree.Ascend(pivot, func(e Entry[T]) bool {
		if landed {
			// Already collected by the walk back.
			landed = false
			if sameSpan(e.Span, entries[len(entries)-1].Span) {
				return true
			}
		}
		if upper.Compare(e.Span) < 0 {
			return false
		}
		entries = append(entries, e)
		return true
	})
	return entries
}

func sameSpan(a, b models.TimeSpan) bool {
	return a.Start.Equal(b.Start) && a.End.Equal(b.End)
}
