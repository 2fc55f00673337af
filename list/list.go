package list

import "golang.org/x/exp/constraints"

// Elem is an intrusive list node. Zero value is a detached node. Embed it
// by value in the owning struct and call Init, passing a pointer back to
// the owner, before first use.
type Elem[T any] struct {
	next, prev *Elem[T]
	owner      *T
}

// Init associates the node with its owning value. Must be called once,
// before the owner is inserted into any List.
func (e *Elem[T]) Init(owner *T) {
	e.owner = owner
}

// Value returns the owning struct.
func (e *Elem[T]) Value() *T {
	return e.owner
}

// Linked reports whether the node is currently a member of some List.
func (e *Elem[T]) Linked() bool {
	return e.next != nil
}

// Comparator reports whether a should be ordered before b.
type Comparator[T any] func(a, b *T) bool

// ByKeyDesc builds a Comparator that orders elements by a descending key -
// e.g. the ready queue and a lock's donation chain, both highest-priority
// first.
func ByKeyDesc[T any, K constraints.Ordered](key func(*T) K) Comparator[T] {
	return func(a, b *T) bool { return key(a) > key(b) }
}

// ByKeyAsc builds a Comparator that orders elements by an ascending key -
// e.g. the sleep queue, earliest deadline first.
func ByKeyAsc[T any, K constraints.Ordered](key func(*T) K) Comparator[T] {
	return func(a, b *T) bool { return key(a) < key(b) }
}

// List is an intrusive doubly-linked list with a sentinel root node. The
// zero value is an empty, usable list.
type List[T any] struct {
	root Elem[T]
	len  int
}

func (l *List[T]) lazyInit() {
	if l.root.next == nil {
		l.root.next = &l.root
		l.root.prev = &l.root
	}
}

// Len returns the number of elements in the list.
func (l *List[T]) Len() int { return l.len }

// Empty reports whether the list has no elements.
func (l *List[T]) Empty() bool { return l.len == 0 }

// Front returns the first element's node, or nil if the list is empty.
func (l *List[T]) Front() *Elem[T] {
	l.lazyInit()
	if l.len == 0 {
		return nil
	}
	return l.root.next
}

// Back returns the last element's node, or nil if the list is empty.
func (l *List[T]) Back() *Elem[T] {
	l.lazyInit()
	if l.len == 0 {
		return nil
	}
	return l.root.prev
}

// Next returns the node following e, or nil at the end of the list.
func (l *List[T]) Next(e *Elem[T]) *Elem[T] {
	if n := e.next; n != &l.root {
		return n
	}
	return nil
}

// Prev returns the node preceding e, or nil at the start of the list.
func (l *List[T]) Prev(e *Elem[T]) *Elem[T] {
	if p := e.prev; p != &l.root {
		return p
	}
	return nil
}

func (l *List[T]) insertAfter(e, at *Elem[T]) *Elem[T] {
	n := at.next
	at.next = e
	e.prev = at
	e.next = n
	n.prev = e
	l.len++
	return e
}

// PushFront inserts e at the front of the list.
func (l *List[T]) PushFront(e *Elem[T]) {
	l.lazyInit()
	l.insertAfter(e, &l.root)
}

// PushBack inserts e at the back of the list.
func (l *List[T]) PushBack(e *Elem[T]) {
	l.lazyInit()
	l.insertAfter(e, l.root.prev)
}

// InsertOrdered inserts e at the position that keeps the list ordered per
// cmp: e is placed immediately before the first existing element for which
// cmp(e, existing) is true, or at the back if no such element exists. This
// gives stable insertion among equal-priority peers: a newly unblocked
// thread goes in after its equal-priority peers, not ahead of them.
func (l *List[T]) InsertOrdered(e *Elem[T], cmp Comparator[T]) {
	l.lazyInit()
	for cur := l.root.next; cur != &l.root; cur = cur.next {
		if cmp(e.owner, cur.owner) {
			l.insertAfter(e, cur.prev)
			return
		}
	}
	l.insertAfter(e, l.root.prev)
}

// Remove detaches e from whatever list it is a member of. Safe to call on
// an already-detached node (no-op).
func (l *List[T]) Remove(e *Elem[T]) {
	if e.next == nil {
		return
	}
	e.prev.next = e.next
	e.next.prev = e.prev
	e.next = nil
	e.prev = nil
	l.len--
}

// PopFront removes and returns the front node, or nil if empty.
func (l *List[T]) PopFront() *Elem[T] {
	f := l.Front()
	if f == nil {
		return nil
	}
	l.Remove(f)
	return f
}

// Sort re-sorts the list in place per cmp using stable insertion sort:
// donation can change a waiter's effective priority while it sits on a
// list, so semaphore.Up and cond.Signal must re-sort before picking the
// front.
func (l *List[T]) Sort(cmp Comparator[T]) {
	if l.len < 2 {
		return
	}
	// Detach the old chain (its last node still points at the root) and
	// reinsert each node in its original order, without allocating.
	cur := l.root.next
	l.root.next = &l.root
	l.root.prev = &l.root
	l.len = 0
	for cur != &l.root {
		next := cur.next
		cur.next, cur.prev = nil, nil
		l.InsertOrdered(cur, cmp)
		cur = next
	}
}

// Each calls fn for every element from front to back. fn must not mutate
// the list.
func (l *List[T]) Each(fn func(*T)) {
	for cur := l.Front(); cur != nil; cur = l.Next(cur) {
		fn(cur.owner)
	}
}
