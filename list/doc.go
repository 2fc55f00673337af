// Package list implements an intrusive, ordered doubly-linked list.
//
// Unlike container/list, nodes carry no storage of their own: an Elem is
// embedded by value inside the struct that owns it (a thread control block,
// a condition-variable waiter record, ...), and list operations never
// allocate. This mirrors the fixed-offset intrusive hooks a kernel list
// needs when list membership must never trigger a heap allocation.
//
// A single owning type may embed more than one Elem field to participate in
// more than one list at once (for example, a thread's ready/sleep/waiter
// membership and its donation-list membership are two independent Elem
// fields on the same TCB).
package list
