package ratelimit

import (
	"context"
	"net"
	"testing"
	"time"

	"static-httpd/middleware/ratelimit/infra"
)

func tcpAddr(ip string, port int) net.Addr {
	return &net.TCPAddr{IP: net.ParseIP(ip), Port: port}
}

func TestGuard_DisabledAlwaysAllows(t *testing.T) {
	g := NewGuard(Options{})
	for i := 0; i < 10; i++ {
		if !g.Check(context.Background(), tcpAddr("10.0.0.1", 1234)).Allowed {
			t.Fatalf("expected allowed when disabled")
		}
	}
	if g.Describe() != "disabled" {
		t.Fatalf("unexpected describe: %q", g.Describe())
	}
}

func TestGuard_AllowsThenRejectsSameClientAcrossPorts(t *testing.T) {
	stats := infra.NewMemoryStatsStore(infra.WithTrackKeys(true))
	g := NewGuard(Options{
		Store:      infra.NewSlidingWindow(2, time.Minute),
		Stats:      stats,
		RetryAfter: time.Minute,
	})

	ctx := context.Background()
	// portas diferentes, mesmo IP: mesma cota
	if !g.Check(ctx, tcpAddr("10.0.0.1", 1000)).Allowed {
		t.Fatalf("expected first allowed")
	}
	if !g.Check(ctx, tcpAddr("10.0.0.1", 1001)).Allowed {
		t.Fatalf("expected second allowed")
	}
	dec := g.Check(ctx, tcpAddr("10.0.0.1", 1002))
	if dec.Allowed {
		t.Fatalf("expected third rejected")
	}
	if dec.RetryAfter != time.Minute {
		t.Fatalf("expected RetryAfter=1m, got %s", dec.RetryAfter)
	}

	if got := stats.ByKey()["10.0.0.1"]; got.Allowed != 2 || got.Denied != 1 {
		t.Fatalf("unexpected stats: %+v", got)
	}
}

func TestGuard_DescribeReportsPolicy(t *testing.T) {
	g := NewGuard(Options{Store: infra.NewSlidingWindow(100, 60*time.Second)})
	if got := g.Describe(); got != "sliding max=100 window=1m0s" {
		t.Fatalf("unexpected describe: %q", got)
	}

	g = NewGuard(Options{Store: infra.NewTokenBucket(1, 2*time.Second)})
	if got := g.Describe(); got != "token rps=0.5 burst=1" {
		t.Fatalf("unexpected describe: %q", got)
	}
}

func TestDefaultKeyFunc(t *testing.T) {
	cases := []struct {
		addr net.Addr
		want string
	}{
		{tcpAddr("10.0.0.9", 5555), "10.0.0.9"},
		{tcpAddr("::1", 80), "::1"},
		{&net.UnixAddr{Name: "@sock", Net: "unix"}, "@sock"},
		{nil, "unknown"},
	}
	for _, c := range cases {
		if got := DefaultKeyFunc(c.addr); got != c.want {
			t.Fatalf("DefaultKeyFunc(%v)=%q want %q", c.addr, got, c.want)
		}
	}
}
