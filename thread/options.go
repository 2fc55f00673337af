package thread

import "github.com/seongjin0614/pintos-kaist/devices"

// Option configures a Scheduler at Boot time.
type Option interface {
	apply(*bootConfig)
}

type optionFunc func(*bootConfig)

func (f optionFunc) apply(c *bootConfig) { f(c) }

type bootConfig struct {
	timeSlice      int
	donationDepth  int
	priorityMin    Priority
	priorityMax    Priority
	priorityDefault Priority
	logger         Logger
	pageAlloc      devices.PageAllocator
	tickSource     devices.TickSource
	halter         devices.Halter
}

func defaultBootConfig() bootConfig {
	return bootConfig{
		timeSlice:       TimeSlice,
		donationDepth:   DonationDepth,
		priorityMin:     PriMin,
		priorityMax:     PriMax,
		priorityDefault: PriDefault,
		logger:          NoOpLogger{},
		pageAlloc:       devices.NewPagePool(0),
		halter:          devices.SleepHalter{},
	}
}

// WithTimeSlice overrides the number of ticks a thread may run before the
// tick handler requests a yield on its behalf. Must be >= 1.
func WithTimeSlice(ticks int) Option {
	return optionFunc(func(c *bootConfig) {
		if ticks >= 1 {
			c.timeSlice = ticks
		}
	})
}

// WithDonationDepth overrides the bound on nested priority donation chain
// propagation. Must be >= 1.
func WithDonationDepth(depth int) Option {
	return optionFunc(func(c *bootConfig) {
		if depth >= 1 {
			c.donationDepth = depth
		}
	})
}

// WithPriorityRange overrides the inclusive [min, max] priority band and
// the default priority, which Boot gives the bootstrap thread (Create
// always takes an explicit priority). Ignored if min > max or def is
// outside [min, max].
func WithPriorityRange(min, max, def Priority) Option {
	return optionFunc(func(c *bootConfig) {
		if min <= max && def >= min && def <= max {
			c.priorityMin = min
			c.priorityMax = max
			c.priorityDefault = def
		}
	})
}

// WithLogger installs a structured logger. The default is a no-op logger.
func WithLogger(l Logger) Option {
	return optionFunc(func(c *bootConfig) {
		if l != nil {
			c.logger = l
		}
	})
}

// WithPageAllocator installs the backing allocator Create draws a fresh
// thread control block's stack page from. The default is an unbounded
// pool; pass a bounded devices.NewPagePool(n) to exercise allocation
// failure (ErrTCBAllocFailed).
func WithPageAllocator(a devices.PageAllocator) Option {
	return optionFunc(func(c *bootConfig) {
		if a != nil {
			c.pageAlloc = a
		}
	})
}

// WithTickSource installs the periodic tick generator that drives OnTick.
// Boot starts it automatically; the default is devices.NewTickerSource
// at 100 Hz. Pass a fake in tests to control tick delivery
// deterministically.
func WithTickSource(t devices.TickSource) Option {
	return optionFunc(func(c *bootConfig) {
		if t != nil {
			c.tickSource = t
		}
	})
}

// WithHalter installs the collaborator the idle thread calls into once
// per loop iteration to stand in for "enable interrupts, halt until the
// next one arrives". The default sleeps briefly.
func WithHalter(h devices.Halter) Option {
	return optionFunc(func(c *bootConfig) {
		if h != nil {
			c.halter = h
		}
	})
}
