package wgapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

const upDoc = `{"status": true, "data": {"status": "up", "peers": [
	{"name": "alice", "latest_handshake": "0:00:10", "status": "running"},
	{"id": "pk-bob", "latest_handshake": "No Handshake"}
]}}`

func newTestClient(t *testing.T, url string, attempts int, timeout time.Duration) *Client {
	t.Helper()
	c, err := NewClient(zap.NewNop(), Options{
		BaseURL:    url,
		APIKey:     "secret",
		ConfigName: "wg0",
		Attempts:   attempts,
		RetryDelay: 5 * time.Millisecond,
		Timeout:    timeout,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestFetchStatus_SendsKeyAndConfigName(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/getConfigurationInfo" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("configurationName"); got != "wg0" {
			t.Errorf("configurationName=%q", got)
		}
		if got := r.Header.Get("wg-dashboard-apikey"); got != "secret" {
			t.Errorf("api key header=%q", got)
		}
		w.Write([]byte(upDoc))
	}))
	defer ts.Close()

	doc, err := newTestClient(t, ts.URL, 1, time.Second).FetchStatus(context.Background())
	if err != nil {
		t.Fatalf("FetchStatus: %v", err)
	}
	if !doc.InterfaceUp || len(doc.Peers) != 2 {
		t.Fatalf("unexpected doc: %+v", doc)
	}
	if doc.Peers[0].Name != "alice" || doc.Peers[0].Status != "running" {
		t.Fatalf("peer 0 wrong: %+v", doc.Peers[0])
	}
	if doc.Peers[1].Name != "pk-bob" || doc.Peers[1].Handshake != "No Handshake" {
		t.Fatalf("peer 1 wrong: %+v", doc.Peers[1])
	}
}

func TestFetchStatus_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusBadGateway)
			return
		}
		w.Write([]byte(upDoc))
	}))
	defer ts.Close()

	if _, err := newTestClient(t, ts.URL, 3, time.Second).FetchStatus(context.Background()); err != nil {
		t.Fatalf("want success on third attempt, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("want 3 calls, got %d", calls.Load())
	}
}

func TestFetchStatus_ExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer ts.Close()

	_, err := newTestClient(t, ts.URL, 2, time.Second).FetchStatus(context.Background())
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("want FetchError, got %v", err)
	}
	if fe.Attempts != 2 || calls.Load() != 2 {
		t.Fatalf("want 2 attempts, got %d (calls %d)", fe.Attempts, calls.Load())
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized {
		t.Fatalf("want StatusError 401 in chain, got %v", err)
	}
}

func TestFetchStatus_WaitsRetryDelayOnlyBetweenAttempts(t *testing.T) {
	const delay = 100 * time.Millisecond
	var (
		mu   sync.Mutex
		hits []time.Time
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits = append(hits, time.Now())
		mu.Unlock()
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c, err := NewClient(zap.NewNop(), Options{
		BaseURL: ts.URL, APIKey: "k", ConfigName: "wg0",
		Attempts: 3, RetryDelay: delay, Timeout: time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	if _, err := c.FetchStatus(context.Background()); err == nil {
		t.Fatalf("want error")
	}
	elapsed := time.Since(start)

	mu.Lock()
	defer mu.Unlock()
	if len(hits) != 3 {
		t.Fatalf("want 3 requests, got %d", len(hits))
	}
	for i := 1; i < len(hits); i++ {
		gap := hits[i].Sub(hits[i-1])
		if gap < delay-10*time.Millisecond || gap > delay+80*time.Millisecond {
			t.Fatalf("gap %d = %v, want about %v", i, gap, delay)
		}
	}
	// two waits, none after the last attempt
	if elapsed < 2*delay-10*time.Millisecond || elapsed >= 3*delay {
		t.Fatalf("total %v, want about %v", elapsed, 2*delay)
	}
}

func TestFetchStatus_MalformedBodyIsFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>login</html>`))
	}))
	defer ts.Close()

	_, err := newTestClient(t, ts.URL, 1, time.Second).FetchStatus(context.Background())
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("want ErrMalformedResponse, got %v", err)
	}
}

func TestFetchStatus_PerAttemptTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(upDoc))
	}))
	defer ts.Close()

	_, err := newTestClient(t, ts.URL, 1, 20*time.Millisecond).FetchStatus(context.Background())
	if err == nil {
		t.Fatalf("want timeout error")
	}
}

func TestFetchStatus_CancelStopsRetryWait(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c, err := NewClient(zap.NewNop(), Options{
		BaseURL: ts.URL, APIKey: "k", ConfigName: "wg0",
		Attempts: 3, RetryDelay: time.Hour, Timeout: time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := c.FetchStatus(ctx); err == nil {
		t.Fatalf("want error")
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("retry wait was not interrupted")
	}
}

func TestEndpoint(t *testing.T) {
	c := newTestClient(t, "http://localhost:10086/api", 1, time.Second)
	want := "http://localhost:10086/api/getConfigurationInfo?configurationName=wg0"
	if c.Endpoint() != want {
		t.Fatalf("endpoint=%q want %q", c.Endpoint(), want)
	}
}
