package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/triscan/business/arbitrage/domain"
)

// captureConsumer records everything delivered to it.
type captureConsumer struct {
	name   string
	err    error
	mu     sync.Mutex
	got    []domain.Opportunity
	closed bool
}

func (c *captureConsumer) Name() string { return c.name }

func (c *captureConsumer) Deliver(_ context.Context, opp domain.Opportunity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.got = append(c.got, opp)
	return nil
}

func (c *captureConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *captureConsumer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.got)
}

func (c *captureConsumer) ids() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.got))
	for i, opp := range c.got {
		out[i] = opp.ID
	}
	return out
}

func (c *captureConsumer) wasClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func cycleOf(a, b, c string) domain.Cycle {
	return domain.Cycle{
		Assets: [3]string{a, b, c},
		Legs: [3]domain.Leg{
			{From: a, To: b, Pair: a + "-" + b},
			{From: b, To: c, Pair: b + "-" + c},
			{From: c, To: a, Pair: c + "-" + a},
		},
	}
}

func newOpp(c domain.Cycle) domain.Opportunity {
	one := decimal.NewFromInt(1)
	rate := decimal.RequireFromString("1.01")
	return domain.NewOpportunity(c, rate, rate, [3]decimal.Decimal{rate, one, one}, [3]uint64{1, 1, 1})
}

func newTestReporter(t *testing.T, consumers []Consumer, cfg ReporterConfig) *Reporter {
	t.Helper()
	r, err := NewReporter(consumers, cfg, testLogger())
	if err != nil {
		t.Fatalf("NewReporter: %v", err)
	}
	return r
}

func TestReporterDeliversToAllConsumers(t *testing.T) {
	c1 := &captureConsumer{name: "one"}
	c2 := &captureConsumer{name: "two"}
	r := newTestReporter(t, []Consumer{c1, c2}, ReporterConfig{})

	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	opp := newOpp(cycleOf("EUR", "JPY", "USD"))
	r.Submit(ctx, opp)

	deadline := time.Now().Add(2 * time.Second)
	for c1.count() < 1 || c2.count() < 1 {
		if time.Now().After(deadline) {
			t.Fatalf("waiting for delivery: got %d and %d", c1.count(), c2.count())
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !c1.wasClosed() || !c2.wasClosed() {
		t.Error("consumers not closed on stop")
	}
	if got := c1.ids(); len(got) != 1 || got[0] != opp.ID {
		t.Errorf("consumer one received %v, want [%s]", got, opp.ID)
	}
}

func TestReporterDedupWindow(t *testing.T) {
	c := &captureConsumer{name: "sink"}
	r := newTestReporter(t, []Consumer{c}, ReporterConfig{DedupWindow: 10 * time.Second, QueueSize: 16})

	current := time.Unix(1700000000, 0)
	r.now = func() time.Time { return current }

	ctx := context.Background()
	rotA := cycleOf("EUR", "JPY", "USD")
	rotB := cycleOf("EUR", "USD", "JPY") // other rotation, same asset triple
	other := cycleOf("BTC", "ETH", "USDT")

	r.Submit(ctx, newOpp(rotA))
	r.Submit(ctx, newOpp(rotB))  // suppressed, same triple
	r.Submit(ctx, newOpp(other)) // different triple passes

	current = current.Add(9 * time.Second)
	r.Submit(ctx, newOpp(rotA)) // still inside the window

	current = current.Add(time.Second)
	r.Submit(ctx, newOpp(rotA)) // window elapsed, reported again

	stats := r.Stats()
	if stats.Reported != 3 {
		t.Errorf("reported = %d, want 3", stats.Reported)
	}
	if stats.Deduped != 2 {
		t.Errorf("deduped = %d, want 2", stats.Deduped)
	}

	if err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if c.count() != 3 {
		t.Errorf("delivered %d opportunities, want 3", c.count())
	}
}

func TestReporterOverflowDropsOldest(t *testing.T) {
	c := &captureConsumer{name: "sink"}
	// No Start: the queue fills synchronously and Stop flushes it.
	r := newTestReporter(t, []Consumer{c}, ReporterConfig{QueueSize: 2})

	ctx := context.Background()
	o1 := newOpp(cycleOf("AAA", "BBB", "CCC"))
	o2 := newOpp(cycleOf("DDD", "EEE", "FFF"))
	o3 := newOpp(cycleOf("GGG", "HHH", "III"))
	o4 := newOpp(cycleOf("JJJ", "KKK", "LLL"))

	r.Submit(ctx, o1)
	r.Submit(ctx, o2)
	r.Submit(ctx, o3) // drops o1, opens the overflow episode
	r.Submit(ctx, o4) // drops o2, same episode

	stats := r.Stats()
	if stats.Reported != 4 {
		t.Errorf("reported = %d, want 4", stats.Reported)
	}
	if stats.Dropped != 2 {
		t.Errorf("dropped = %d, want 2", stats.Dropped)
	}
	if stats.OverflowEpisodes != 1 {
		t.Errorf("overflow episodes = %d, want 1", stats.OverflowEpisodes)
	}

	if err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	got := c.ids()
	if len(got) != 2 || got[0] != o3.ID || got[1] != o4.ID {
		t.Errorf("flushed %v, want [%s %s]", got, o3.ID, o4.ID)
	}
}

func TestReporterOverflowEpisodeReopens(t *testing.T) {
	c := &captureConsumer{name: "sink"}
	r := newTestReporter(t, []Consumer{c}, ReporterConfig{QueueSize: 1})

	ctx := context.Background()
	r.Submit(ctx, newOpp(cycleOf("AAA", "BBB", "CCC")))
	r.Submit(ctx, newOpp(cycleOf("DDD", "EEE", "FFF"))) // episode one

	<-r.queue // drain, as a running deliverer would

	r.Submit(ctx, newOpp(cycleOf("GGG", "HHH", "III"))) // clean enqueue closes the episode
	r.Submit(ctx, newOpp(cycleOf("JJJ", "KKK", "LLL"))) // episode two

	if got := r.Stats().OverflowEpisodes; got != 2 {
		t.Errorf("overflow episodes = %d, want 2", got)
	}

	if err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestReporterDeliveryErrorDoesNotStopOthers(t *testing.T) {
	failing := &captureConsumer{name: "failing", err: errors.New("boom")}
	ok := &captureConsumer{name: "ok"}
	r := newTestReporter(t, []Consumer{failing, ok}, ReporterConfig{QueueSize: 4})

	r.Submit(context.Background(), newOpp(cycleOf("EUR", "JPY", "USD")))

	if err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if ok.count() != 1 {
		t.Errorf("healthy consumer received %d, want 1", ok.count())
	}
}

func TestReporterStopIsIdempotent(t *testing.T) {
	c := &captureConsumer{name: "sink"}
	r := newTestReporter(t, []Consumer{c}, ReporterConfig{})

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := r.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}
