package infra

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"static-httpd/middleware/ratelimit/domain"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 4, 24, 10, 0, 0, 0, time.UTC)}
}

func TestSlidingWindow_AllowsUpToMaxThenRejects(t *testing.T) {
	for _, max := range []int{1, 5, 100} {
		clk := newClock()
		w := NewSlidingWindow(max, time.Minute, WithClock(clk.Now))

		for i := 0; i < max; i++ {
			if !w.Allow("10.0.0.1") {
				t.Fatalf("max=%d: expected request %d to be allowed", max, i+1)
			}
			clk.Advance(10 * time.Millisecond)
		}
		if w.Allow("10.0.0.1") {
			t.Fatalf("max=%d: expected request %d to be rejected", max, max+1)
		}
	}
}

func TestSlidingWindow_AllowsAgainAfterWindow(t *testing.T) {
	clk := newClock()
	w := NewSlidingWindow(2, 10*time.Second, WithClock(clk.Now))

	w.Allow("10.0.0.1")
	w.Allow("10.0.0.1")
	if w.Allow("10.0.0.1") {
		t.Fatalf("expected third request to be rejected")
	}

	clk.Advance(10*time.Second + time.Millisecond)
	if !w.Allow("10.0.0.1") {
		t.Fatalf("expected request after the window to be allowed")
	}
}

func TestSlidingWindow_SlidesInsteadOfResetting(t *testing.T) {
	clk := newClock()
	w := NewSlidingWindow(2, 10*time.Second, WithClock(clk.Now))

	w.Allow("a") // t=0
	clk.Advance(6 * time.Second)
	w.Allow("a") // t=6
	clk.Advance(5 * time.Second)

	// t=11: a requisição de t=0 saiu da janela, a de t=6 não
	if !w.Allow("a") {
		t.Fatalf("expected allowed once the oldest request expired")
	}
	if w.Allow("a") {
		t.Fatalf("expected rejected: two requests still inside the window")
	}
}

func TestSlidingWindow_RejectedRequestsAreNotRecorded(t *testing.T) {
	clk := newClock()
	w := NewSlidingWindow(1, 10*time.Second, WithClock(clk.Now))

	w.Allow("a")
	for i := 0; i < 5; i++ {
		clk.Advance(time.Second)
		w.Allow("a")
	}
	// só a primeira entrou; ela expira em t=10
	clk.Advance(5*time.Second + time.Millisecond)
	if !w.Allow("a") {
		t.Fatalf("rejected requests must not extend the window")
	}
}

func TestSlidingWindow_CollidingAddressesEvictEachOther(t *testing.T) {
	// "Aa" e "BB" têm o mesmo hash polinomial base 31
	if slotOf("Aa") != slotOf("BB") {
		t.Fatalf("test precondition: expected colliding slots")
	}

	clk := newClock()
	w := NewSlidingWindow(1, time.Minute, WithClock(clk.Now))

	if !w.Allow("Aa") {
		t.Fatalf("expected first Aa allowed")
	}
	if w.Allow("Aa") {
		t.Fatalf("expected Aa quota exhausted")
	}
	if !w.Allow("BB") {
		t.Fatalf("expected BB allowed: collision evicts, it does not share history")
	}
	// Aa perdeu o histórico ao ser despejado
	if !w.Allow("Aa") {
		t.Fatalf("expected Aa allowed again after eviction")
	}
}

func TestSlidingWindow_RingKeepsOnlyLastEntries(t *testing.T) {
	clk := newClock()
	w := NewSlidingWindow(WindowRing+10, time.Hour, WithClock(clk.Now))

	// com o ring cheio, a contagem nunca passa de WindowRing
	for i := 0; i < WindowRing+50; i++ {
		if !w.Allow("a") {
			t.Fatalf("request %d rejected, ring must cap the counted history", i+1)
		}
	}
}

func TestSlidingWindow_GetReturnsLimiterBoundToKey(t *testing.T) {
	w := NewSlidingWindow(1, time.Minute)
	lim := w.Get(domain.Key("10.0.0.7"))
	if !lim.Allow() {
		t.Fatalf("expected first Allow true")
	}
	if lim.Allow() {
		t.Fatalf("expected second Allow false")
	}
	if !w.Get(domain.Key("10.0.0.8")).Allow() {
		t.Fatalf("other key must have its own quota")
	}
}

func TestSlidingWindow_ConcurrentSameKeyNeverExceedsMax(t *testing.T) {
	w := NewSlidingWindow(50, time.Hour)

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if w.Allow("10.1.1.1") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := allowed.Load(); got != 50 {
		t.Fatalf("expected exactly 50 allowed, got %d", got)
	}
}

func TestSlotOf_InRange(t *testing.T) {
	for _, a := range []string{"", "127.0.0.1", "::1", "255.255.255.255", "2001:db8::ff00:42:8329"} {
		if s := slotOf(a); s < 0 || s >= WindowSlots {
			t.Fatalf("slot %d out of range for %q", s, a)
		}
	}
}
