package infra

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/triscan/internal/apperror"
)

func TestWebhookDeliverPostsJSON(t *testing.T) {
	var (
		mu    sync.Mutex
		got   opportunityMessage
		calls int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q, want application/json", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewWebhookConsumer(WebhookConfig{URL: srv.URL}, testLog())
	if err != nil {
		t.Fatalf("NewWebhookConsumer: %v", err)
	}

	opp := sampleOpportunity()
	if err := c.Deliver(context.Background(), opp); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("server calls = %d, want 1", calls)
	}
	if got.ID != opp.ID {
		t.Errorf("payload id = %s, want %s", got.ID, opp.ID)
	}
	if got.NetRate != "1.008" {
		t.Errorf("payload net rate = %s, want 1.008", got.NetRate)
	}
	if got.Legs[0].Pair != "EUR-JPY" || got.Legs[0].Seq != 7 {
		t.Errorf("payload first leg = %+v", got.Legs[0])
	}
}

func TestWebhookDeliverReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewWebhookConsumer(WebhookConfig{URL: srv.URL}, testLog())
	if err != nil {
		t.Fatalf("NewWebhookConsumer: %v", err)
	}

	err = c.Deliver(context.Background(), sampleOpportunity())
	if err == nil {
		t.Fatal("expected delivery error")
	}
	if code := apperror.GetCode(err); code != apperror.CodeWebhookDeliveryFailed {
		t.Errorf("error code = %s, want %s", code, apperror.CodeWebhookDeliveryFailed)
	}
}

func TestWebhookCircuitOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewWebhookConsumer(WebhookConfig{URL: srv.URL}, testLog())
	if err != nil {
		t.Fatalf("NewWebhookConsumer: %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := c.Deliver(context.Background(), sampleOpportunity()); err == nil {
			t.Fatalf("delivery %d unexpectedly succeeded", i)
		}
	}

	err = c.Deliver(context.Background(), sampleOpportunity())
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("error = %v, want open circuit", err)
	}
}

func TestWebhookRateLimitStopsDeliveries(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewWebhookConsumer(WebhookConfig{URL: srv.URL, MaxPerMinute: 1}, testLog())
	if err != nil {
		t.Fatalf("NewWebhookConsumer: %v", err)
	}

	if err := c.Deliver(context.Background(), sampleOpportunity()); err != nil {
		t.Fatalf("first delivery: %v", err)
	}

	err = c.Deliver(context.Background(), sampleOpportunity())
	if code := apperror.GetCode(err); code != apperror.CodeRateLimitExceeded {
		t.Fatalf("error code = %s, want %s", code, apperror.CodeRateLimitExceeded)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("server calls = %d, want 1", calls)
	}
}

func TestNewWebhookConsumerRequiresURL(t *testing.T) {
	if _, err := NewWebhookConsumer(WebhookConfig{}, testLog()); err == nil {
		t.Fatal("NewWebhookConsumer accepted empty url")
	}
}
