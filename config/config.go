// Package config loads the scheduler's boot-time tunables from a TOML
// file, mirroring how a kernel's build-time constants (TIME_SLICE,
// PRI_MIN/PRI_MAX, TIMER_FREQ) would be exposed as adjustable settings in
// a userspace port.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Boot holds every tunable thread.Boot accepts an Option for. It is kept
// independent of the thread package so it can be loaded and validated
// without importing the scheduler itself.
type Boot struct {
	TimeSlice      int `toml:"time_slice"`
	DonationDepth  int `toml:"donation_depth"`
	PriorityMin    int `toml:"priority_min"`
	PriorityMax    int `toml:"priority_max"`
	PriorityDefault int `toml:"priority_default"`
	TimerFreqHz    int `toml:"timer_freq_hz"`
	StackPages     int `toml:"stack_pages"`
}

// Default matches the scheduler's own built-in defaults.
func Default() Boot {
	return Boot{
		TimeSlice:       4,
		DonationDepth:   8,
		PriorityMin:     0,
		PriorityMax:     63,
		PriorityDefault: 31,
		TimerFreqHz:     100,
		StackPages:      0, // 0 means unbounded
	}
}

// Load reads a TOML configuration file, starting from Default and
// overriding whatever fields the file sets.
func Load(path string) (Boot, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Boot{}, fmt.Errorf("config: load %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Boot{}, err
	}
	return cfg, nil
}

// Validate reports whether the configuration describes a usable
// scheduler.
func (b Boot) Validate() error {
	if b.TimeSlice < 1 {
		return fmt.Errorf("config: time_slice must be >= 1, got %d", b.TimeSlice)
	}
	if b.DonationDepth < 1 {
		return fmt.Errorf("config: donation_depth must be >= 1, got %d", b.DonationDepth)
	}
	if b.PriorityMin > b.PriorityMax {
		return fmt.Errorf("config: priority_min (%d) must be <= priority_max (%d)", b.PriorityMin, b.PriorityMax)
	}
	if b.PriorityDefault < b.PriorityMin || b.PriorityDefault > b.PriorityMax {
		return fmt.Errorf("config: priority_default (%d) must be within [%d, %d]", b.PriorityDefault, b.PriorityMin, b.PriorityMax)
	}
	if b.TimerFreqHz < 1 {
		return fmt.Errorf("config: timer_freq_hz must be >= 1, got %d", b.TimerFreqHz)
	}
	if b.StackPages < 0 {
		return fmt.Errorf("config: stack_pages must be >= 0, got %d", b.StackPages)
	}
	return nil
}

// String renders the configuration for startup logging. Deliberately
// kept in this package rather than importing thread, so it composes with
// thread.Boot at the call site instead:
//
//	cfg, _ := config.Load("boot.toml")
//	sched := thread.Boot("main",
//		thread.WithTimeSlice(cfg.TimeSlice),
//		thread.WithDonationDepth(cfg.DonationDepth),
//		thread.WithPriorityRange(thread.Priority(cfg.PriorityMin), thread.Priority(cfg.PriorityMax), thread.Priority(cfg.PriorityDefault)),
//	)
func (b Boot) String() string {
	return fmt.Sprintf("time_slice=%d donation_depth=%d priority=[%d,%d] default=%d timer_freq_hz=%d",
		b.TimeSlice, b.DonationDepth, b.PriorityMin, b.PriorityMax, b.PriorityDefault, b.TimerFreqHz)
}
