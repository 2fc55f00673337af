// Package thread implements a preemptive, priority-ordered thread
// scheduler: thread control blocks and their lifecycle, the ready-queue
// scheduler itself, timed sleep, counting semaphores, locks with priority
// donation, and condition variables. These six concerns are kept in one
// package because they share one set of invariants (interrupts-disabled
// critical sections, a single current-thread pointer, priority-ordered
// wake) and constantly call into one another.
//
// # Substituting for hardware
//
// The out-of-scope collaborators (context-switch assembly, the interrupt
// controller, page allocation) are replaced with goroutine-native
// equivalents: a pure-userspace port can substitute cooperative coroutine
// switching without changing any of the invariants above.
//
//   - context_switch is a per-thread buffered channel (TCB.resume): the
//     scheduler hands off control by sending on the incoming thread's
//     channel and (unless the outgoing thread is dying) blocking on its
//     own channel until it is dispatched again.
//   - Because nothing can forcibly suspend a running goroutine the way a
//     hardware interrupt suspends a running instruction stream, CPU-bound
//     thread bodies must call Scheduler.Checkpoint at a cooperative safe
//     point (e.g. once per loop iteration) to honor a pending
//     yield-on-return request. This is a deliberate, named substitution
//     for the interrupt-return path; see DESIGN.md for the tradeoff.
//   - current() is derived from goroutine identity instead of a stack
//     pointer, via a runtime.Stack-parsing trick.
package thread
