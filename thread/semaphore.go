package thread

import "github.com/seongjin0614/pintos-kaist/list"

// Semaphore is a counting semaphore: a non-negative integer plus a
// priority-ordered wait list. NewSemaphore's n is the initial value.
type Semaphore struct {
	sched   *Scheduler
	value   int
	waiters list.List[TCB]
}

// NewSemaphore creates a semaphore with the given initial value.
func (s *Scheduler) NewSemaphore(n int) *Semaphore {
	return &Semaphore{sched: s, value: n}
}

// Down waits for the semaphore's value to become positive, then
// atomically decrements it. Must not be called from interrupt context.
func (sem *Semaphore) Down() {
	s := sem.sched
	lvl := s.gate.Disable()
	cur := s.current
	for sem.value == 0 {
		cur.status = StatusBlocked
		sem.waiters.InsertOrdered(&cur.listElem, readyCmp)
		s.scheduleLocked()
	}
	sem.value--
	s.gate.Restore(lvl)
}

// TryDown decrements the semaphore and returns true only if its value
// was already positive; never blocks.
func (sem *Semaphore) TryDown() bool {
	s := sem.sched
	lvl := s.gate.Disable()
	ok := sem.value > 0
	if ok {
		sem.value--
	}
	s.gate.Restore(lvl)
	return ok
}

// Up increments the semaphore's value and, if a thread was waiting,
// unblocks the highest-priority one. Called from thread context: if the
// unblocked thread now outranks the caller, the caller yields to it
// immediately before Up returns.
func (sem *Semaphore) Up() {
	sem.up(false)
}

// UpFromInterrupt is Up's interrupt-context counterpart: identical
// bookkeeping, but a resulting preemption is only flagged for the
// running thread's next checkpoint rather than performed inline, since
// nothing can forcibly suspend another goroutine's in-flight execution.
func (sem *Semaphore) UpFromInterrupt() {
	sem.up(true)
}

func (sem *Semaphore) up(fromInterrupt bool) {
	s := sem.sched
	lvl := s.gate.Disable()
	sem.waiters.Sort(readyCmp)
	if e := sem.waiters.PopFront(); e != nil {
		s.unblockLocked(e.Value())
	}
	sem.value++
	s.preemptIfHigherLocked(fromInterrupt)
	s.gate.Restore(lvl)
}

// Value returns the semaphore's current value. Diagnostic only; the
// value can change the instant this call returns.
func (sem *Semaphore) Value() int {
	s := sem.sched
	lvl := s.gate.Disable()
	v := sem.value
	s.gate.Restore(lvl)
	return v
}
