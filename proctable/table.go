// Package proctable implements the circular process table: an
// insertion-ordered map with a rotating cursor, used by the scheduler for
// fair round-robin selection without a separate priority queue.
//
// Grounded on this codebase's registry/ring-cursor idiom (a monotonic id
// space plus a cursor that always advances to the next live key), adapted
// from a weak-pointer promise registry to a dense value table.
package proctable

import "sort"

// Table is a mapping from monotonically assigned, never-reused ids to
// values of type V, plus a cursor naming the "current" id. Iteration order
// is ascending id; the zero value is not usable, use New.
type Table[V any] struct {
	entries map[int64]V
	keys    []int64 // sorted ascending, mirrors entries' key set
	cursor  int64
	autoinc int64
}

// New returns an empty Table with cursor 0 and autoinc -1.
func New[V any]() *Table[V] {
	return &Table[V]{
		entries: make(map[int64]V),
		autoinc: -1,
	}
}

// Len reports the number of live entries.
func (t *Table[V]) Len() int { return len(t.keys) }

// Push inserts value under a freshly minted id (autoinc+1), and returns that
// id. The cursor is left unchanged.
func (t *Table[V]) Push(value V) (id int64) {
	id = t.autoinc + 1
	t.autoinc = id
	t.entries[id] = value
	// id is strictly greater than every key ever inserted (ids are never
	// reused), so it is always safe to append to keep keys sorted.
	t.keys = append(t.keys, id)
	return id
}

// At returns the value stored under id, if any.
func (t *Table[V]) At(id int64) (value V, ok bool) {
	value, ok = t.entries[id]
	return
}

// Current returns At(cursor).
func (t *Table[V]) Current() (value V, ok bool) {
	return t.At(t.cursor)
}

// CursorID returns the id the cursor currently names. It is meaningful only
// when Current reports ok.
func (t *Table[V]) CursorID() int64 { return t.cursor }

// UpdateCurrent replaces the cursor's entry with f(entry), if it exists.
// Otherwise it is a no-op.
func (t *Table[V]) UpdateCurrent(f func(V) V) {
	if v, ok := t.entries[t.cursor]; ok {
		t.entries[t.cursor] = f(v)
	}
}

// Rotate advances the cursor to the smallest key strictly greater than the
// current cursor, wrapping to the smallest key overall when none exists. An
// empty table leaves the cursor unchanged.
func (t *Table[V]) Rotate() {
	if len(t.keys) == 0 {
		return
	}
	i := sort.Search(len(t.keys), func(i int) bool { return t.keys[i] > t.cursor })
	if i < len(t.keys) {
		t.cursor = t.keys[i]
	} else {
		t.cursor = t.keys[0]
	}
}

// Remove deletes the entry named by id, if present. If id is the cursor's
// own entry, the cursor is advanced first (via Rotate), so while other
// entries remain it never dangles at a just-removed key; removing the only
// entry leaves the cursor naming that id, and Current then reports no
// value. Removing an id other than the cursor's leaves the
// cursor where it is: no other key's removal can invalidate it.
func (t *Table[V]) Remove(id int64) {
	if _, ok := t.entries[id]; !ok {
		return
	}
	if id == t.cursor {
		t.Rotate()
	}
	delete(t.entries, id)
	i := sort.Search(len(t.keys), func(i int) bool { return t.keys[i] >= id })
	if i < len(t.keys) && t.keys[i] == id {
		t.keys = append(t.keys[:i], t.keys[i+1:]...)
	}
}

// Reduce folds across entries in ascending id order. It is not used by the
// scheduler itself; it exists for bulk inspection/cleanup callers, per the
// optional CircularList.reduce operation.
func Reduce[V, A any](t *Table[V], init A, f func(acc A, id int64, value V) A) A {
	acc := init
	for _, id := range t.keys {
		acc = f(acc, id, t.entries[id])
	}
	return acc
}
