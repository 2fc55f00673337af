package thread

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestSleepForZeroTicksIsNoOp(t *testing.T) {
	s := bootForTest(t)
	ran := false
	// Above the caller's priority, so Create runs it synchronously to
	// completion - a no-op SleepFor(0) never touches the sleep queue.
	_, _ = s.Create("zero", PriDefault+1, func(any) {
		s.SleepFor(0)
		ran = true
	}, nil)

	assert.True(t, ran, "SleepFor(0) should not block the caller")
}

func TestSleepUntilWakesAtDeadlineTick(t *testing.T) {
	s := bootForTest(t)
	woke := make(chan uint64, 1)

	start := s.CurrentTick()
	_, _ = s.Create("sleeper", PriDefault, func(any) {
		s.SleepFor(3)
		woke <- s.CurrentTick()
	}, nil)

	s.Yield() // let sleeper register on the sleep queue and block

	// The sleeper has the caller's priority, so a wake never preempts the
	// caller: each tick is followed by a Yield to let a woken sleeper run.
	for i := 0; i < 2; i++ {
		s.OnTick()
		s.Yield()
		select {
		case <-woke:
			t.Fatalf("sleeper woke early, after %d ticks", i+1)
		default:
		}
	}
	s.OnTick() // third tick reaches the deadline
	s.Yield()

	select {
	case tick := <-woke:
		assert.Equal(t, start+3, tick)
	case <-time.After(time.Second):
		t.Fatal("sleeper never woke at its deadline")
	}
}

func TestSleepersWakeInDeadlineOrder(t *testing.T) {
	s := bootForTest(t)
	order := make(chan string, 3)

	_, _ = s.Create("late", PriDefault, func(any) {
		s.SleepFor(5)
		order <- "late"
	}, nil)
	_, _ = s.Create("early", PriDefault, func(any) {
		s.SleepFor(1)
		order <- "early"
	}, nil)
	_, _ = s.Create("mid", PriDefault, func(any) {
		s.SleepFor(3)
		order <- "mid"
	}, nil)

	s.Yield() // all three register sleep deadlines

	var got []string
	for i := 0; i < 5; i++ {
		s.OnTick()
		s.Yield() // equal priority: a woken sleeper runs only once the caller yields
		for {
			select {
			case v := <-order:
				got = append(got, v)
				continue
			default:
			}
			break
		}
	}
	if diff := cmp.Diff([]string{"early", "mid", "late"}, got); diff != "" {
		t.Fatalf("wake order mismatch (-want +got):\n%s", diff)
	}
}

func TestSleepForSecondsFallsBackToBusyWaitBelowOneTick(t *testing.T) {
	s := bootForTest(t)
	done := make(chan struct{})
	go func() {
		// 1 nanosecond at 100Hz resolves to 0 ticks; this must busy-wait
		// in real time rather than block on the sleep queue forever.
		s.SleepForSeconds(1, 1_000_000_000, 100)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sub-tick SleepForSeconds never returned")
	}
}

func TestSleepForSecondsSchedulesWholeTicks(t *testing.T) {
	s := bootForTest(t)
	start := s.CurrentTick()
	woke := make(chan uint64, 1)

	_, _ = s.Create("sleeper", PriDefault, func(any) {
		s.SleepForSeconds(2, 1, 100) // 2s at 100Hz == 200 ticks
		woke <- s.CurrentTick()
	}, nil)

	s.Yield()
	for i := 0; i < 200; i++ {
		s.OnTick()
	}
	s.Yield() // equal priority: the woken sleeper runs only once the caller yields

	select {
	case tick := <-woke:
		assert.Equal(t, start+200, tick)
	case <-time.After(time.Second):
		t.Fatal("sleeper never woke after 200 ticks")
	}
}
