package thread

// Lock is a binary semaphore with priority donation: while a thread
// holds the lock, every thread that blocks trying to acquire it donates
// its effective priority to the holder, recursively, up to DonationDepth
// hops through a chain of threads each waiting on a lock held by the
// next.
type Lock struct {
	sched  *Scheduler
	sema   *Semaphore
	holder *TCB
}

// NewLock creates an unheld lock.
func (s *Scheduler) NewLock() *Lock {
	return &Lock{sched: s, sema: s.NewSemaphore(1)}
}

// Held reports whether the calling thread currently holds l.
func (l *Lock) Held() bool {
	s := l.sched
	lvl := s.gate.Disable()
	held := l.holder == s.current
	s.gate.Restore(lvl)
	return held
}

// Acquire waits until l is free and takes it. If l is already held, the
// calling thread donates its priority to the holder (and transitively up
// any chain of locks the holder is itself blocked waiting on) before
// blocking. Must not be called from interrupt context, nor by a thread
// that already holds l.
func (l *Lock) Acquire() {
	s := l.sched

	lvl := s.gate.Disable()
	cur := s.current
	assert(l.holder != cur, "thread: lock: recursive acquire by holder")
	if l.holder != nil {
		cur.waitOnLock = l
		l.holder.donations.InsertOrdered(&cur.donationElem, readyCmp)
		s.donateNestedLocked(cur)
	}
	s.gate.Restore(lvl)

	l.sema.Down()

	lvl = s.gate.Disable()
	cur.waitOnLock = nil
	l.holder = cur
	s.logf(LevelDebug, "lock", cur.id, "acquired lock")
	s.gate.Restore(lvl)
}

// donateNestedLocked propagates donor's effective priority up the chain
// of threads donor is (transitively) waiting behind, one lock hop at a
// time, stopping after DonationDepth hops even if the chain continues -
// a bounded-depth approximation of the unbounded propagation a fully
// general priority-inheritance protocol would perform.
func (s *Scheduler) donateNestedLocked(donor *TCB) {
	priority := donor.priority
	cur := donor
	for depth := 0; depth < s.cfg.donationDepth; depth++ {
		if cur.waitOnLock == nil {
			return
		}
		holder := cur.waitOnLock.holder
		if holder == nil {
			return
		}
		if holder.priority < priority {
			holder.priority = priority
		}
		cur = holder
	}
}

// TryAcquire takes l only if it is currently free, without donating.
// Never blocks.
func (l *Lock) TryAcquire() bool {
	if !l.sema.TryDown() {
		return false
	}
	s := l.sched
	lvl := s.gate.Disable()
	l.holder = s.current
	s.gate.Restore(lvl)
	return true
}

// Release gives up l. Every donor whose wait_on_lock is l is removed
// from the caller's donation list and the caller's effective priority is
// recomputed before the lock is handed to the next waiter, so a thread
// that held multiple donated locks only loses the portion of its
// donation attributable to the one it just released.
func (l *Lock) Release() {
	s := l.sched
	lvl := s.gate.Disable()
	cur := s.current
	assert(l.holder == cur, "thread: lock: release by non-holder")

	next := cur.donations.Front()
	for e := next; e != nil; e = next {
		next = cur.donations.Next(e)
		if e.Value().waitOnLock == l {
			cur.donations.Remove(e)
		}
	}
	s.recomputeEffectivePriorityLocked(cur)
	l.holder = nil
	s.logf(LevelDebug, "lock", cur.id, "released lock")
	s.gate.Restore(lvl)

	l.sema.Up()
}
