//go:build linux

package devices

import (
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// TimerfdSource is the Linux tick source, backed by CLOCK_MONOTONIC
// timerfd instead of a Go-runtime time.Ticker. It exists for the same
// reason the eventloop package reaches for epoll and eventfd on Linux
// rather than a portable poller: a kernel-native timer primitive is
// closer to the real periodic interrupt timer the original thread_tick
// handler is driven by.
type TimerfdSource struct {
	FreqHz int

	fd     int
	closed atomic.Bool
	done   chan struct{}
}

// NewTimerfdSource creates a source that fires freqHz times per second
// via timerfd_create/timerfd_settime.
func NewTimerfdSource(freqHz int) *TimerfdSource {
	if freqHz <= 0 {
		freqHz = 100
	}
	return &TimerfdSource{FreqHz: freqHz, fd: -1}
}

func (t *TimerfdSource) Start(onTick func()) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_CLOEXEC)
	if err != nil {
		// Fall back to the portable ticker rather than failing Boot.
		fallback := NewTickerSource(t.FreqHz)
		fallback.Start(onTick)
		t.done = make(chan struct{})
		go func() { <-t.done; fallback.Stop() }()
		return
	}
	t.fd = fd

	periodNanos := int64(1e9) / int64(t.FreqHz)
	spec := unix.ItimerSpec{
		Interval: unix.NsecToTimespec(periodNanos),
		Value:    unix.NsecToTimespec(periodNanos),
	}
	if err := unix.TimerfdSettime(fd, 0, &spec, nil); err != nil {
		unix.Close(fd)
		t.fd = -1
		fallback := NewTickerSource(t.FreqHz)
		fallback.Start(onTick)
		t.done = make(chan struct{})
		go func() { <-t.done; fallback.Stop() }()
		return
	}

	t.done = make(chan struct{})
	go func() {
		var buf [8]byte
		for {
			n, err := unix.Read(fd, buf[:])
			if t.closed.Load() {
				return
			}
			if err != nil || n != len(buf) {
				continue
			}
			onTick()
		}
	}()
}

func (t *TimerfdSource) Stop() {
	if !t.closed.CompareAndSwap(false, true) {
		return
	}
	if t.fd >= 0 {
		unix.Close(t.fd)
	}
	if t.done != nil {
		close(t.done)
	}
}
