package thread

import "github.com/seongjin0614/pintos-kaist/list"

// condWaiter is a condition variable's wait-list entry: a private
// one-shot semaphore plus the waiting thread's identity, kept only so
// Signal can pick the highest-priority waiter rather than the oldest.
type condWaiter struct {
	sema *Semaphore
	tcb  *TCB
	elem list.Elem[condWaiter]
}

// condWaiterCmp orders a condition variable's wait list highest effective
// priority first, so Signal always wakes the most urgent waiter.
var condWaiterCmp = list.ByKeyDesc(func(w *condWaiter) Priority { return w.tcb.priority })

// Cond is a condition variable, always used together with a Lock that
// protects the condition it signals.
type Cond struct {
	sched   *Scheduler
	waiters list.List[condWaiter]
}

// NewCond creates a condition variable.
func (s *Scheduler) NewCond() *Cond {
	return &Cond{sched: s}
}

// Wait atomically releases l and blocks the caller until signaled, then
// reacquires l before returning. The caller must hold l.
func (c *Cond) Wait(l *Lock) {
	s := c.sched
	w := &condWaiter{sema: s.NewSemaphore(0)}
	w.elem.Init(w)

	lvl := s.gate.Disable()
	w.tcb = s.current
	c.waiters.InsertOrdered(&w.elem, condWaiterCmp)
	s.gate.Restore(lvl)

	l.Release()
	w.sema.Down()
	l.Acquire()
}

// Signal wakes the highest-priority thread waiting on c, if any. The
// caller must hold l. Must not be called from interrupt context.
func (c *Cond) Signal(l *Lock) {
	s := c.sched
	lvl := s.gate.Disable()
	c.waiters.Sort(condWaiterCmp)
	e := c.waiters.PopFront()
	s.gate.Restore(lvl)

	if e != nil {
		e.Value().sema.Up()
	}
}

// Broadcast wakes every thread waiting on c. The caller must hold l.
func (c *Cond) Broadcast(l *Lock) {
	for {
		s := c.sched
		lvl := s.gate.Disable()
		empty := c.waiters.Empty()
		s.gate.Restore(lvl)
		if empty {
			return
		}
		c.Signal(l)
	}
}
