package wikidata

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestTransport(total int) *retryTransport {
	policy := RetryPolicy{
		Total:          total,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		Statuses:       defaultTransientStatuses(),
		Methods:        defaultRetryMethods(),
	}
	return newRetryTransport(nil, policy, 5*time.Second, nil)
}

func TestTransportRetriesTransient(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &http.Client{Transport: newTestTransport(5)}
	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestTransportExhaustion(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := &http.Client{Transport: newTestTransport(3)}
	_, err := client.Get(server.URL)
	if err == nil {
		t.Fatal("expected error after exhausting the retry budget")
	}
	if !strings.Contains(err.Error(), "giving up after 3 attempt(s)") {
		t.Errorf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestTransportDoesNotRetry429(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := &http.Client{Transport: newTestTransport(5)}
	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429 passthrough, got %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("429 must not be retried at the transport, got %d attempts", got)
	}
}

func TestTransportReplaysPOSTBody(t *testing.T) {
	var calls int32
	bodies := make(chan string, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		bodies <- string(raw)
		if atomic.AddInt32(&calls, 1) < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &http.Client{Transport: newTestTransport(3)}
	resp, err := client.Post(server.URL, "application/x-www-form-urlencoded", strings.NewReader("query=SELECT"))
	if err != nil {
		t.Fatalf("Post() returned error: %v", err)
	}
	defer resp.Body.Close()

	close(bodies)
	var seen []string
	for body := range bodies {
		seen = append(seen, body)
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(seen))
	}
	for i, body := range seen {
		if body != "query=SELECT" {
			t.Errorf("attempt %d: body not replayed, got %q", i+1, body)
		}
	}
}

func TestTransportPerAttemptTimeout(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	policy := RetryPolicy{
		Total:          2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		Statuses:       defaultTransientStatuses(),
		Methods:        defaultRetryMethods(),
	}
	client := &http.Client{Transport: newRetryTransport(nil, policy, 50*time.Millisecond, nil)}

	start := time.Now()
	_, err := client.Get(server.URL)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("per-attempt timeout not applied, took %v", elapsed)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("timed-out attempts must be retried like network errors, got %d attempts", got)
	}
}

func TestTransportAttemptTimeoutOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	// Generous default, tight per-request override.
	client := &http.Client{Transport: newTestTransport(1)}
	ctx := withAttemptTimeout(context.Background(), 50*time.Millisecond)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}

	start := time.Now()
	if _, err := client.Do(req); err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("override not applied, took %v", elapsed)
	}
}

func TestTransportSkipsIneligibleMethod(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := &http.Client{Transport: newTestTransport(5)}
	req, err := http.NewRequest(http.MethodDelete, server.URL, nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() returned error: %v", err)
	}
	defer resp.Body.Close()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("DELETE must not be retried, got %d attempts", got)
	}
}

func TestSleepContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := sleepContext(ctx, 5*time.Second)
	if err == nil {
		t.Fatal("expected context error")
	}
	if time.Since(start) > time.Second {
		t.Error("sleepContext did not honor cancellation")
	}
}
