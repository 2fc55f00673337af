package thread

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockAcquireDonatesPriorityToHolder(t *testing.T) {
	s := bootForTest(t)
	l := s.NewLock()
	releaseSema := s.NewSemaphore(0)

	// Above the caller's priority: Create runs "low" synchronously to its
	// first scheduler-blocking call (releaseSema.Down) before returning.
	low, _ := s.Create("low", PriDefault+1, func(any) {
		l.Acquire()
		releaseSema.Down() // hold the lock until told to release
		l.Release()
	}, nil)

	// high outranks low's base priority, so Create runs it synchronously
	// too: it blocks inside l.Acquire(), donating its priority to low.
	high, _ := s.Create("high", PriDefault+10, func(any) {
		l.Acquire()
		l.Release()
	}, nil)

	assert.Equal(t, PriDefault+10, low.Priority(), "low should run at high's donated priority while holding the contended lock")
	assert.Equal(t, StatusBlocked, high.Status())

	// Upping releaseSema wakes low, which still holds the lock (it
	// outranks the caller, so Up() preempts immediately); low releases
	// the lock, in turn waking high (which outranks everything else, so it runs
	// to completion before control returns here).
	releaseSema.Up()

	assert.Equal(t, StatusDying, high.Status(), "high should have finished by the time control returns")
}

func TestLockReleaseRestoresBasePriorityAfterDonation(t *testing.T) {
	s := bootForTest(t)
	l := s.NewLock()
	releaseSema := s.NewSemaphore(0)

	holder, _ := s.Create("holder", PriDefault+1, func(any) {
		l.Acquire()
		releaseSema.Down()
		l.Release()
	}, nil)

	_, _ = s.Create("donor", PriDefault+10, func(any) {
		l.Acquire()
		l.Release()
	}, nil)

	assert.Equal(t, PriDefault+10, holder.Priority(), "holder should be running at the donor's priority")

	releaseSema.Up()

	assert.Equal(t, PriDefault+1, holder.Priority(), "releasing the lock should drop back to the thread's own base priority")
}

func TestNestedDonationPropagatesThroughLockChain(t *testing.T) {
	s := bootForTest(t)
	l1, l2 := s.NewLock(), s.NewLock()
	l1ReleaseSema := s.NewSemaphore(0)

	t1, _ := s.Create("t1", PriDefault+1, func(any) {
		l1.Acquire()
		l1ReleaseSema.Down()
		l1.Release()
	}, nil)

	t2, _ := s.Create("t2", PriDefault+2, func(any) {
		l2.Acquire()
		l1.Acquire() // blocks behind t1, donating to t1
		l1.Release()
		l2.Release()
	}, nil)

	_, _ = s.Create("t3", PriDefault+20, func(any) {
		l2.Acquire() // blocks behind t2, which should chain-donate to t1
		l2.Release()
	}, nil)

	assert.Equal(t, PriDefault+20, t2.Priority(), "t2 should receive t3's donation directly")
	assert.Equal(t, PriDefault+20, t1.Priority(), "t1 should receive t3's donation transitively through t2")

	l1ReleaseSema.Up()
}

func TestDonationDepthBound(t *testing.T) {
	const depth = 3
	s := bootForTest(t, WithDonationDepth(depth))

	const n = depth + 2
	locks := make([]*Lock, n)
	for i := range locks {
		locks[i] = s.NewLock()
	}

	releaseSemas := make([]*Semaphore, n)
	for i := range releaseSemas {
		releaseSemas[i] = s.NewSemaphore(0)
	}

	// thread i acquires locks[i] and then, if i>0, blocks trying to
	// acquire locks[i-1] - already held by thread i-1, created just
	// before it - forming a chain. Ascending creation order is required:
	// thread i-1 must already hold its lock before thread i tries to
	// block behind it.
	threads := make([]*TCB, n)
	for i := 0; i < n; i++ {
		i := i
		th, _ := s.Create(namesFor(i), PriDefault+Priority(i)+1, func(any) {
			locks[i].Acquire()
			if i > 0 {
				locks[i-1].Acquire()
				locks[i-1].Release()
			}
			releaseSemas[i].Down()
			locks[i].Release()
		}, nil)
		threads[i] = th
	}

	_, _ = s.Create("donor", PriDefault+50, func(any) {
		locks[n-1].Acquire()
		locks[n-1].Release()
	}, nil)

	// Donor donates to thread n-1 directly (hop 1), then transitively up
	// the chain through locks[n-2], locks[n-3], ... for up to depth hops.
	for i := n - 1; i >= 0; i-- {
		hop := n - i
		if hop <= depth {
			assert.Equalf(t, PriDefault+50, threads[i].Priority(), "thread %d is within the donation depth bound (hop %d)", i, hop)
		} else {
			assert.NotEqualf(t, PriDefault+50, threads[i].Priority(), "thread %d is beyond the donation depth bound (hop %d) and should not receive the donation", i, hop)
		}
	}

	for _, sem := range releaseSemas {
		sem.Up()
	}
}

func namesFor(i int) string {
	return string(rune('a' + i))
}
