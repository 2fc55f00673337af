// Package devices stands in for the hardware collaborators a thread
// scheduler normally drives directly: the periodic interrupt timer, the
// page allocator backing each thread control block's stack, and the
// "halt until the next interrupt" idle instruction. None of these are
// schedulable entities themselves; they are the boundary the scheduler
// core polls or is driven by.
package devices
