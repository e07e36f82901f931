package ratelimit

import (
	"context"
	"testing"
)

func TestLowBudgetStillAdmitsOneEvent(t *testing.T) {
	l := New(1)

	if !l.Allow() {
		t.Fatal("first event should fit the budget")
	}
	if l.Allow() {
		t.Fatal("second immediate event should be denied")
	}
}

func TestBurstIsTenthOfBudget(t *testing.T) {
	l := New(600)

	granted := 0
	for i := 0; i < 120; i++ {
		if l.Allow() {
			granted++
		}
	}
	// Refill during the loop adds at most a fraction of a token.
	if granted < 60 || granted > 61 {
		t.Errorf("granted = %d, want 60", granted)
	}
}

func TestWaitHonorsCancelledContext(t *testing.T) {
	l := New(1)
	l.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Wait(ctx); err == nil {
		t.Fatal("Wait should fail once the context is cancelled")
	}
}

func TestTokensDrainWithUse(t *testing.T) {
	l := New(60)

	before := l.Tokens()
	for i := 0; i < 6; i++ {
		l.Allow()
	}
	after := l.Tokens()

	if before < 5 {
		t.Errorf("initial tokens = %f, want near burst of 6", before)
	}
	if after >= 1 {
		t.Errorf("tokens after drain = %f, want below 1", after)
	}
}
