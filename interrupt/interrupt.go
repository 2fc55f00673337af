// Package interrupt provides the single primitive the scheduler core relies
// on for mutual exclusion: a gate that can be disabled (interrupts off) and
// restored to whatever level it was at before.
//
// On a single CPU, disabling interrupts around a critical section is
// sufficient because nothing else can run concurrently with the code that
// holds the gate closed. This port substitutes a goroutine-cooperative
// stand-in for hardware interrupt masking: the gate is a plain mutex. Every
// public entry point in this module acquires it at most once before doing
// any work (Semaphore.Down, Lock.Acquire, Cond.Wait, SleepUntil, Yield, Exit, the
// periodic tick handler, ...), and every helper beneath that boundary takes
// "gate already held" as a precondition rather than acquiring it again —
// the same discipline the original kernel's own call graph follows. That
// means Disable/Restore pairs never nest within a single goroutine's
// control flow, so a plain mutex is sufficient: no reentrancy tracking is
// needed.
//
// The one place a Disable/Restore pair spans a goroutine handoff is the
// scheduler's own context switch, and there the gate is deliberately
// released right before the switch and re-acquired right after - see
// thread.Scheduler's scheduleLocked for why holding a Go mutex locked
// across a goroutine suspension does not work the way holding a hardware
// interrupt flag disabled across a stack switch does.
//
// The gate is still a genuine mutex across goroutines, and that is load
// bearing: the periodic tick source runs on its own goroutine, concurrently
// with whatever thread goroutine currently holds the CPU, exactly as a real
// timer interrupt can fire at any point in a running thread's execution.
// When the tick source calls Disable while a thread-context critical
// section is in progress, it blocks until that section calls Restore —
// modeling the hardware behavior of a masked interrupt being latched and
// delivered as soon as the interrupt flag is re-enabled.
package interrupt

import "sync"

// Level mirrors Pintos' intr_level: whether interrupts were on or off
// immediately before a Disable call, so Restore knows whether to reopen
// the gate.
type Level bool

const (
	// Off: interrupts disabled.
	Off Level = false
	// On: interrupts enabled.
	On Level = true
)

// Gate is the scheduler's sole synchronization primitive. The zero value is
// an open (interrupts-enabled) gate, ready to use.
type Gate struct {
	mu sync.Mutex
}

// Disable closes the gate and returns On, the level that was in effect
// beforehand. Every caller in this module is expected to hold interrupts
// enabled at the point it calls Disable (see the package doc); the return
// value exists to make Restore's call sites self-documenting and to match
// the shape of the original intr_disable/intr_set_level pair.
func (g *Gate) Disable() Level {
	g.mu.Lock()
	return On
}

// Restore reopens the gate if prev was On. Calling Restore(Off) is a no-op.
//
// Restore is not owner-checked: it may legitimately be called from a
// different goroutine than the one that called Disable. The scheduler's
// context switch relies on this to release the gate from the outgoing
// thread's goroutine immediately before it suspends, so the incoming
// thread's goroutine is never stuck waiting on a lock only the (now
// parked) outgoing goroutine could otherwise unlock.
func (g *Gate) Restore(prev Level) {
	if prev == Off {
		return
	}
	g.mu.Unlock()
}
