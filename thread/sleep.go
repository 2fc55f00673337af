package thread

import "github.com/seongjin0614/pintos-kaist/devices"

// SleepUntil blocks the calling thread until the scheduler's tick counter
// reaches deadline. Precondition: not called from the idle thread.
func (s *Scheduler) SleepUntil(deadline uint64) {
	lvl := s.gate.Disable()
	cur := s.current
	cur.wakeupTick = deadline
	cur.status = StatusBlocked
	s.sleepQ.InsertOrdered(&cur.listElem, sleepCmp)
	s.scheduleLocked()
	s.gate.Restore(lvl)
}

// SleepFor blocks the calling thread for the given number of ticks.
// ticks == 0 returns immediately without scheduling, matching the
// original timer_sleep's "non-positive duration is a no-op" contract.
func (s *Scheduler) SleepFor(ticks uint64) {
	if ticks == 0 {
		return
	}
	s.SleepUntil(s.CurrentTick() + ticks)
}

// SleepForSeconds converts a numerator/denominator real-time duration
// (seconds = numerator/denominator) into ticks at the caller-supplied
// timer frequency freqHz and sleeps that many ticks. When the
// duration is too short to resolve to a whole tick, it falls back to a
// real-time busy wait rather than rounding to zero - the same tradeoff
// timer_usleep/timer_nsleep make for sub-tick precision.
func (s *Scheduler) SleepForSeconds(numerator, denominator int64, freqHz int) {
	if denominator <= 0 || freqHz <= 0 {
		return
	}
	ticks := numerator * int64(freqHz) / denominator
	if ticks > 0 {
		s.SleepFor(uint64(ticks))
		return
	}
	devices.BusyWait(numerator, denominator, freqHz)
}
