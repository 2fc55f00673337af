package thread

import (
	"github.com/seongjin0614/pintos-kaist/devices"
	"github.com/seongjin0614/pintos-kaist/list"
)

// ID uniquely identifies a thread for its lifetime. IDs are never reused.
type ID int64

// Status is the thread control block's lifecycle state.
type Status int32

const (
	StatusBlocked Status = iota
	StatusReady
	StatusRunning
	StatusDying
)

func (s Status) String() string {
	switch s {
	case StatusBlocked:
		return "blocked"
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusDying:
		return "dying"
	default:
		return "unknown"
	}
}

// Priority is a thread's scheduling priority. Higher runs first.
type Priority int

// Default priority band, matching the conventional 0-63 scale with 31 as
// the priority new threads get unless told otherwise.
const (
	PriMin     Priority = 0
	PriDefault Priority = 31
	PriMax     Priority = 63
)

// TimeSlice is the default number of ticks a thread may run before the
// tick handler requests a yield on its behalf.
const TimeSlice = 4

// DonationDepth bounds how many hops a priority donation propagates
// through a chain of threads each waiting on a lock held by the next.
const DonationDepth = 8

// threadMagic is a vestigial canary: real Pintos detects stack overflow
// by checking this value on entry to current(). Go's managed, growable
// stacks make that specific failure mode unreachable, so the check in
// Scheduler.Current can only ever catch a TCB corrupted through API
// misuse - kept for structural fidelity, not as a real safety net.
const threadMagic = 0xcd6abf4b

// MaxNameLen bounds a thread's display name; longer names are truncated.
// 15, matching the original kernel's char name[16] (15 usable bytes plus
// the NUL terminator struct thread never stores explicitly here).
const MaxNameLen = 15

// TCB is a thread control block: the scheduler's complete record of one
// thread. Exported read-only accessors are provided; mutation only ever
// happens through Scheduler methods, all of which take the interrupt gate
// before touching a TCB's fields.
type TCB struct {
	id    ID
	name  string
	magic uint32

	status       Status
	priority     Priority
	initPriority Priority

	wakeupTick uint64
	sliceTicks int
	ticksRun   uint64

	waitOnLock   *Lock
	donations    list.List[TCB]
	donationElem list.Elem[TCB]
	listElem     list.Elem[TCB]

	yieldRequested bool

	resume chan struct{}
	done   chan struct{}
	fn     func(aux any)
	aux    any

	page devices.Page

	sched *Scheduler
}

// ID returns the thread's identity.
func (t *TCB) ID() ID { return t.id }

// Name returns the thread's display name.
func (t *TCB) Name() string { return t.name }

// Status returns the thread's current lifecycle state. Racy unless read
// while the caller holds the scheduler's gate (e.g. from within thread
// context about itself); intended mainly for diagnostics and tests.
func (t *TCB) Status() Status { return t.status }

// Priority returns the thread's current effective priority (max of its
// base priority and any donations received).
func (t *TCB) Priority() Priority { return t.priority }

// TicksRun returns the cumulative number of tick-handler invocations
// this thread was the running thread for. Diagnostic only.
func (t *TCB) TicksRun() uint64 { return t.ticksRun }

func truncName(name string) string {
	if len(name) <= MaxNameLen {
		return name
	}
	return name[:MaxNameLen]
}
