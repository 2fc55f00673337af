package thread

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/seongjin0614/pintos-kaist/devices"
	"github.com/seongjin0614/pintos-kaist/list"

	"github.com/seongjin0614/pintos-kaist/interrupt"
)

// readyCmp orders the ready queue and donation chains: highest effective
// priority first, and - because List.InsertOrdered only inserts ahead of
// elements the new one strictly outranks - stable FIFO order among equal
// priorities.
var readyCmp = list.ByKeyDesc(func(t *TCB) Priority { return t.priority })

// sleepCmp orders the sleep queue earliest-deadline first.
var sleepCmp = list.ByKeyAsc(func(t *TCB) uint64 { return t.wakeupTick })

// Scheduler is the single-CPU, priority-preemptive thread scheduler. The
// zero value is not usable; construct one with Boot.
type Scheduler struct {
	gate   interrupt.Gate
	logger Logger

	cfg bootConfig

	tidSeq atomic.Int64
	tick   uint64 // mutated only while gate is held

	ready  list.List[TCB]
	sleepQ list.List[TCB]
	dying  []*TCB

	current   *TCB
	idle      *TCB
	bootstrap *TCB

	idleStarted *Semaphore

	tickSource devices.TickSource

	byGoroutine sync.Map // uint64 goroutine id -> *TCB

	idleTicks   uint64
	kernelTicks uint64
}

// Stats reports cumulative tick counts, categorized by whether the
// running thread at each tick was the idle thread or not, mirroring the
// original kernel's thread_print_stats (idle_ticks/kernel_ticks; there is
// no user_ticks equivalent here since userspace processes are out of
// scope for this port).
type Stats struct {
	IdleTicks   uint64
	KernelTicks uint64
}

// Stats returns a snapshot of the scheduler's tick accounting.
func (s *Scheduler) Stats() Stats {
	lvl := s.gate.Disable()
	st := Stats{IdleTicks: s.idleTicks, KernelTicks: s.kernelTicks}
	s.gate.Restore(lvl)
	return st
}

// Boot synthesizes the bootstrap thread control block from the calling
// goroutine, starts the idle thread, and begins periodic tick delivery.
// It must be called exactly once, from the goroutine that will act as the
// bootstrap thread for the rest of the process's life (main, or a test's
// goroutine).
func Boot(name string, opts ...Option) *Scheduler {
	cfg := defaultBootConfig()
	for _, o := range opts {
		o.apply(&cfg)
	}

	s := &Scheduler{
		cfg:    cfg,
		logger: cfg.logger,
	}

	s.bootstrap = s.mustNewTCB(name, cfg.priorityDefault, nil, nil)
	s.bootstrap.status = StatusRunning
	s.current = s.bootstrap
	s.registerGoroutine(s.bootstrap)

	s.idleStarted = s.NewSemaphore(0)
	s.idle = s.mustNewTCB("idle", cfg.priorityMin, s.idleMain, nil)
	go s.runThreadBody(s.idle)

	lvl := s.gate.Disable()
	s.unblockLocked(s.idle)
	s.gate.Restore(lvl)

	s.idleStarted.Down()

	if cfg.tickSource != nil {
		s.tickSource = cfg.tickSource
	} else {
		s.tickSource = devices.NewTickerSource(100)
	}
	s.tickSource.Start(s.OnTick)

	lvl = s.gate.Disable()
	s.logf(LevelInfo, "boot", s.bootstrap.id, "scheduler booted, idle thread running")
	s.gate.Restore(lvl)
	return s
}

// Shutdown stops tick delivery. It does not and cannot forcibly terminate
// outstanding thread goroutines (there is no hardware halt to invoke);
// callers are expected to have already driven every non-idle thread to
// Exit.
func (s *Scheduler) Shutdown() {
	if s.tickSource != nil {
		s.tickSource.Stop()
	}
}

// newTCB allocates and initializes a thread control block. It reports two
// distinct error conditions through the same signature: an allocation
// failure (ErrTCBAllocFailed) returns a nil *TCB - the caller has nothing
// to work with - while an over-length name (ErrNameTooLong) still returns
// a fully valid, usable *TCB whose name has been truncated, mirroring the
// doc comment's "advisory only" contract. A priority outside the
// configured [priorityMin, priorityMax] band is never advisory: it trips
// assert, mirroring init_thread's ASSERT (PRI_MIN <= priority && priority
// <= PRI_MAX) in the original kernel.
func (s *Scheduler) newTCB(name string, priority Priority, fn func(aux any), aux any) (*TCB, error) {
	assert(priority >= s.cfg.priorityMin && priority <= s.cfg.priorityMax,
		fmt.Sprintf("priority %d outside configured range [%d,%d]", priority, s.cfg.priorityMin, s.cfg.priorityMax))

	page, err := s.cfg.pageAlloc.Alloc()
	if err != nil {
		return nil, fmt.Errorf("thread: create %q: %w", name, ErrTCBAllocFailed)
	}
	t := &TCB{
		id:           ID(s.tidSeq.Add(1)),
		name:         truncName(name),
		magic:        threadMagic,
		status:       StatusBlocked,
		priority:     priority,
		initPriority: priority,
		resume:       make(chan struct{}, 1),
		done:         make(chan struct{}),
		fn:           fn,
		aux:          aux,
		page:         page,
		sched:        s,
	}
	t.listElem.Init(t)
	t.donationElem.Init(t)

	if len(name) > MaxNameLen {
		return t, fmt.Errorf("thread: create %q: %w", name, ErrNameTooLong)
	}
	return t, nil
}

// mustNewTCB is newTCB for Boot's synthesis of the bootstrap and idle
// threads: failing to allocate the very first two thread control blocks
// is unrecoverable, so it panics instead of threading an error back
// through Boot's signature. A truncated bootstrap/idle name is not fatal
// and is silently accepted, same as everywhere else ErrNameTooLong can
// surface.
func (s *Scheduler) mustNewTCB(name string, priority Priority, fn func(aux any), aux any) *TCB {
	t, err := s.newTCB(name, priority, fn, aux)
	if t == nil {
		panic(err)
	}
	return t
}

func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}

func (s *Scheduler) registerGoroutine(t *TCB) {
	s.byGoroutine.Store(currentGoroutineID(), t)
}

// Current returns the TCB for whichever thread the calling goroutine
// represents, or nil if called from a goroutine the scheduler didn't
// create (including Boot's caller before Boot returns).
func (s *Scheduler) Current() *TCB {
	if v, ok := s.byGoroutine.Load(currentGoroutineID()); ok {
		t := v.(*TCB)
		assert(t.magic == threadMagic, "thread magic corrupted")
		return t
	}
	return nil
}

// runThreadBody is the goroutine every non-bootstrap thread runs in. It
// parks until first dispatched, then mirrors the original kernel_thread
// trampoline: a thread is always dispatched "with interrupts disabled"
// (inherited from whichever schedule() call dispatched it), and its
// first action is to immediately re-enable them before running its own
// entry function, which is free to call any public API from a clean,
// ungated state.
func (s *Scheduler) runThreadBody(t *TCB) {
	defer close(t.done)
	<-t.resume
	s.gate.Disable()
	s.registerGoroutine(t)
	s.gate.Restore(interrupt.On)
	t.fn(t.aux)
	s.Exit()
}

// Create allocates a new thread, makes it ready to run, and performs the
// preemption check: if the new thread's priority exceeds the caller's,
// the caller yields to it immediately before Create returns. A non-nil
// error paired with a non-nil *TCB is ErrNameTooLong - advisory, the
// thread is created and dispatched regardless. A non-nil error paired
// with a nil *TCB is ErrTCBAllocFailed - the thread was never created.
func (s *Scheduler) Create(name string, priority Priority, entry func(aux any), aux any) (*TCB, error) {
	t, err := s.newTCB(name, priority, entry, aux)
	if t == nil {
		return nil, err
	}
	go s.runThreadBody(t)

	lvl := s.gate.Disable()
	s.unblockLocked(t)
	s.preemptIfHigherLocked(false)
	s.logf(LevelDebug, "create", t.id, "created thread %q at priority %d", t.name, priority)
	s.gate.Restore(lvl)

	return t, err
}

func (s *Scheduler) unblockLocked(t *TCB) {
	t.status = StatusReady
	s.ready.InsertOrdered(&t.listElem, readyCmp)
}

// preemptIfHigherLocked checks whether the ready queue's head now
// outranks the running thread. From thread context the switch happens
// immediately; from interrupt context (fromInterrupt=true) it only flags
// the running thread to yield at its next checkpoint, since nothing can
// forcibly suspend another goroutine's in-flight execution.
func (s *Scheduler) preemptIfHigherLocked(fromInterrupt bool) {
	if s.current == s.idle {
		return
	}
	front := s.ready.Front()
	if front == nil {
		return
	}
	if front.Value().priority <= s.current.priority {
		return
	}
	if fromInterrupt {
		s.current.yieldRequested = true
		return
	}
	s.yieldNowLocked()
}

func (s *Scheduler) yieldNowLocked() {
	cur := s.current
	cur.status = StatusReady
	s.ready.InsertOrdered(&cur.listElem, readyCmp)
	s.scheduleLocked()
}

// Yield voluntarily gives up the CPU: the caller moves from running to
// ready, priority-ordered, and the scheduler dispatches the new head of
// the ready queue (which may be the caller itself again).
func (s *Scheduler) Yield() {
	lvl := s.gate.Disable()
	s.yieldNowLocked()
	s.gate.Restore(lvl)
}

// Checkpoint is the cooperative substitute for the interrupt-return path:
// a long-running thread body should call this periodically (e.g. once
// per loop iteration of CPU-bound work) so that a pending
// yield-on-return request set by the tick handler actually takes effect.
// It is a deliberate, named substitution for hardware preemption; see
// the package doc.
func (s *Scheduler) Checkpoint() {
	lvl := s.gate.Disable()
	cur := s.current
	if cur.yieldRequested {
		cur.yieldRequested = false
		s.yieldNowLocked()
	}
	s.gate.Restore(lvl)
}

// Exit marks the calling thread dying and schedules away from it. It
// never returns: the calling goroutine is terminated (after running its
// deferred close of the done channel) by the scheduler once the context
// switch to the next thread has been handed off.
func (s *Scheduler) Exit() {
	lvl := s.gate.Disable()
	s.current.status = StatusDying
	s.logf(LevelDebug, "exit", s.current.id, "thread exiting")
	s.scheduleLocked()
	s.gate.Restore(lvl) // unreachable: scheduleLocked never returns for a dying outgoing thread
}

// scheduleLocked performs one dispatch: it frees any TCBs queued dying by
// the previous call, picks the next thread to run, and hands off the
// context-switch baton. Precondition: gate held, caller's status already
// set to whatever it should be (Ready, Blocked, or Dying) before calling.
//
// A context switch between two distinct thread goroutines cannot simply
// keep the gate's mutex locked across the handoff: the goroutine that
// called scheduleLocked is about to block on a channel receive without
// releasing it, and the goroutine being dispatched (or, for its very
// first dispatch, runThreadBody) needs to take the gate itself. So the
// gate is explicitly released immediately after the baton is handed off,
// and re-acquired immediately after this goroutine is redispatched -
// from the Go runtime's perspective two separate lock/unlock pairs, but
// together modeling a single interrupts-disabled flag that simply
// persists, untouched, across the switch.
func (s *Scheduler) scheduleLocked() {
	for _, t := range s.dying {
		s.cfg.pageAlloc.Free(t.page)
	}
	s.dying = s.dying[:0]

	outgoing := s.current
	next := s.nextToRunLocked()
	next.status = StatusRunning
	next.sliceTicks = 0
	s.current = next

	dyingOut := outgoing.status == StatusDying && outgoing != s.bootstrap
	if dyingOut {
		s.dying = append(s.dying, outgoing)
	}

	if next == outgoing {
		return
	}

	next.resume <- struct{}{}
	s.gate.Restore(interrupt.On)

	if dyingOut {
		runtime.Goexit()
	}

	<-outgoing.resume
	s.gate.Disable()
}

func (s *Scheduler) nextToRunLocked() *TCB {
	if e := s.ready.PopFront(); e != nil {
		return e.Value()
	}
	return s.idle
}

func (s *Scheduler) idleMain(any) {
	s.idleStarted.Up()
	for {
		lvl := s.gate.Disable()
		s.current.status = StatusBlocked
		s.scheduleLocked()
		s.gate.Restore(lvl)
		s.cfg.halter.Halt()
	}
}

// SetPriority sets t's base priority. If donations currently push t's
// effective priority above p, the effective priority is unaffected until
// those donations are released; if t is the running thread and the
// change drops it below the ready queue's head, preemption happens
// before SetPriority returns. p outside the configured
// [priorityMin, priorityMax] band trips assert, the same invariant
// newTCB enforces at creation time.
func (s *Scheduler) SetPriority(t *TCB, p Priority) {
	assert(p >= s.cfg.priorityMin && p <= s.cfg.priorityMax,
		fmt.Sprintf("priority %d outside configured range [%d,%d]", p, s.cfg.priorityMin, s.cfg.priorityMax))

	lvl := s.gate.Disable()
	t.initPriority = p
	s.recomputeEffectivePriorityLocked(t)
	if t == s.current {
		s.preemptIfHigherLocked(false)
	}
	s.gate.Restore(lvl)
}

func (s *Scheduler) recomputeEffectivePriorityLocked(t *TCB) {
	t.donations.Sort(readyCmp)
	eff := t.initPriority
	if front := t.donations.Front(); front != nil {
		if d := front.Value().priority; d > eff {
			eff = d
		}
	}
	t.priority = eff
}

// CurrentTick returns the scheduler's tick counter.
func (s *Scheduler) CurrentTick() uint64 {
	lvl := s.gate.Disable()
	t := s.tick
	s.gate.Restore(lvl)
	return t
}

// OnTick is the periodic tick handler, invoked by the configured
// TickSource. It models interrupt context: it never switches threads
// directly, only wakes sleepers and flags a pending yield.
func (s *Scheduler) OnTick() {
	lvl := s.gate.Disable()
	s.tick++
	s.current.sliceTicks++
	s.current.ticksRun++
	if s.current == s.idle {
		s.idleTicks++
	} else {
		s.kernelTicks++
	}
	s.drainSleepersLocked()
	if s.current != s.idle && s.current.sliceTicks >= s.cfg.timeSlice {
		s.current.yieldRequested = true
	}
	s.gate.Restore(lvl)
}

func (s *Scheduler) drainSleepersLocked() {
	woke := false
	for {
		e := s.sleepQ.Front()
		if e == nil {
			break
		}
		t := e.Value()
		if t.wakeupTick > s.tick {
			break
		}
		s.sleepQ.Remove(e)
		s.unblockLocked(t)
		woke = true
	}
	if woke {
		s.preemptIfHigherLocked(true)
	}
}
