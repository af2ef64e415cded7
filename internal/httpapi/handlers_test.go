package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hamed0406/wgwatch/internal/domain"
	"github.com/hamed0406/wgwatch/internal/metrics"
	"github.com/hamed0406/wgwatch/internal/repo/memory"
)

// ---- test helpers ----

func setupServer(t *testing.T, keys []string) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveSnapshot(domain.Snapshot{InterfaceUp: true, Peers: map[string]bool{"alice": true}})

	srv := NewServer(zap.NewNop(), store, reg, "wg0")
	// very high rate limits to avoid flakiness in tests
	ts := httptest.NewServer(srv.Router(keys, 10_000, 10_000))
	t.Cleanup(ts.Close)
	return ts, store
}

func get(t *testing.T, url, key string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	ts, _ := setupServer(t, []string{"k"})
	resp := get(t, ts.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
}

func TestStatus_BeforeFirstPoll(t *testing.T) {
	ts, _ := setupServer(t, nil)
	resp := get(t, ts.URL+"/api/status", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	var got struct {
		Configuration string `json:"configuration"`
		Observed      bool   `json:"observed"`
		TotalPeers    int    `json:"total_peers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Configuration != "wg0" || got.Observed || got.TotalPeers != 0 {
		t.Fatalf("unexpected status %+v", got)
	}
}

func TestStatus_AfterSuccess(t *testing.T) {
	ts, store := setupServer(t, []string{"status_key"})
	snap := domain.Snapshot{InterfaceUp: true, Peers: map[string]bool{"bob": false, "alice": true}}
	_ = store.RecordSuccess(context.Background(), snap, time.Now())

	if resp := get(t, ts.URL+"/api/status", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing key: want 401, got %d", resp.StatusCode)
	}

	resp := get(t, ts.URL+"/api/status", "status_key")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	var got struct {
		Observed       bool `json:"observed"`
		ConnectedPeers int  `json:"connected_peers"`
		PeerList       []struct {
			Name      string `json:"name"`
			Connected bool   `json:"connected"`
		} `json:"peer_list"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Observed || got.ConnectedPeers != 1 || len(got.PeerList) != 2 {
		t.Fatalf("unexpected status %+v", got)
	}
	if got.PeerList[0].Name != "alice" || !got.PeerList[0].Connected || got.PeerList[1].Connected {
		t.Fatalf("peer list should be sorted with flags, got %+v", got.PeerList)
	}
}

func TestEvents_NewestFirstWithLimit(t *testing.T) {
	ts, store := setupServer(t, nil)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_ = store.AppendEvent(context.Background(), domain.EventRecord{
		Event: domain.Event{Kind: domain.PeersDisconnected, Peers: []string{"bob"}}, At: base, Notified: true,
	})
	_ = store.AppendEvent(context.Background(), domain.EventRecord{
		Event: domain.Event{Kind: domain.PeersReconnected, Peers: []string{"bob"}}, At: base.Add(time.Minute), Notified: true,
	})

	resp := get(t, ts.URL+"/api/events?limit=1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	var evs []struct {
		Kind  string   `json:"kind"`
		Peers []string `json:"peers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&evs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(evs) != 1 || evs[0].Kind != "peers_reconnected" {
		t.Fatalf("unexpected events %+v", evs)
	}
}

func TestEvents_BadLimit(t *testing.T) {
	ts, _ := setupServer(t, nil)
	for _, q := range []string{"0", "-3", "abc"} {
		if resp := get(t, ts.URL+"/api/events?limit="+q, ""); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("limit=%s: want 400, got %d", q, resp.StatusCode)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := setupServer(t, []string{"k"})
	resp := get(t, ts.URL+"/metrics", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `wgwatch_peer_connected{peer="alice"} 1`) {
		t.Fatalf("metrics output missing peer gauge:\n%s", body)
	}
}
