package feedsim

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/fd1az/triscan/business/market/domain"
	"github.com/fd1az/triscan/internal/asset"
	"github.com/fd1az/triscan/internal/logger"
)

func testPairs(t *testing.T) []domain.Pair {
	t.Helper()
	pairs, err := domain.ParsePairs([]string{"BTC-USDT", "ETH-USDT", "ETH-BTC"}, asset.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	return pairs
}

func testConfig(t *testing.T, seed int64, faults bool) Config {
	cfg := DefaultConfig(testPairs(t))
	cfg.Interval = time.Millisecond
	cfg.Seed = seed
	cfg.Faults = faults
	return cfg
}

func collect(t *testing.T, events <-chan domain.PriceEvent, n int) []domain.PriceEvent {
	t.Helper()
	out := make([]domain.PriceEvent, 0, n)
	timeout := time.After(10 * time.Second)
	for len(out) < n {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("stream closed after %d events, want %d", len(out), n)
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("timed out after %d events, want %d", len(out), n)
		}
	}
	return out
}

func TestStreamIsWellFormedWithoutFaults(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelInfo, "feedsim-test", nil)
	src := NewSource(testConfig(t, 7, false), log)
	defer src.Close()

	events, err := src.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	known := map[string]bool{"BTC-USDT": true, "ETH-USDT": true, "ETH-BTC": true}
	lastSeq := map[string]uint64{}

	for _, ev := range collect(t, events, 100) {
		if !known[ev.Pair] {
			t.Fatalf("event for unknown pair %q without faults enabled", ev.Pair)
		}
		if ev.Bid.Sign() <= 0 {
			t.Fatalf("non-positive bid %s", ev.Bid)
		}
		if !ev.Ask.GreaterThan(ev.Bid) {
			t.Fatalf("ask %s not above bid %s", ev.Ask, ev.Bid)
		}
		if ev.Seq <= lastSeq[ev.Pair] {
			t.Fatalf("pair %s: seq %d does not advance %d", ev.Pair, ev.Seq, lastSeq[ev.Pair])
		}
		lastSeq[ev.Pair] = ev.Seq
	}
}

func TestSameSeedSameStream(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelInfo, "feedsim-test", nil)

	srcA := NewSource(testConfig(t, 42, true), log)
	defer srcA.Close()
	srcB := NewSource(testConfig(t, 42, true), log)
	defer srcB.Close()

	eventsA, err := srcA.Subscribe(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	eventsB, err := srcB.Subscribe(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	a := collect(t, eventsA, 25)
	b := collect(t, eventsB, 25)

	for i := range a {
		if a[i].Pair != b[i].Pair || a[i].Seq != b[i].Seq ||
			!a[i].Bid.Equal(b[i].Bid) || !a[i].Ask.Equal(b[i].Ask) {
			t.Fatalf("event %d diverged: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestFaultInjectionKeepsStreamAlive(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelInfo, "feedsim-test", nil)
	src := NewSource(testConfig(t, 99, true), log)
	defer src.Close()

	events, err := src.Subscribe(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// A faulty stream must still deliver a full batch without stalling.
	evs := collect(t, events, 300)
	valid := 0
	for _, ev := range evs {
		if ev.Pair != "FAKE-PAIR" && ev.Bid.Sign() > 0 {
			valid++
		}
	}
	if valid == 0 {
		t.Error("no valid events among 300 with fault injection")
	}
}

func TestCloseEndsStream(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelInfo, "feedsim-test", nil)
	src := NewSource(testConfig(t, 1, false), log)

	events, err := src.Subscribe(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	collect(t, events, 5)
	src.Close()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream not closed after Close")
		}
	}
}

func TestSubscribeRequiresPairs(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelInfo, "feedsim-test", nil)
	src := NewSource(Config{Interval: time.Millisecond}, log)

	if _, err := src.Subscribe(context.Background()); err == nil {
		t.Error("Subscribe succeeded with empty universe")
	}
}
