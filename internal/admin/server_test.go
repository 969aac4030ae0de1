package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"packetops-sim/internal/stats"
)

func testServer() (*Server, *stats.Store) {
	store := stats.NewStore([]string{"source1", "source2"}, []string{"dest1"})
	return NewServer(store, "host-test"), store
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := testServer()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestTotalsEndpoint(t *testing.T) {
	srv, store := testServer()
	store.AddTotals(42, 17)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/totals", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]uint64
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["packets_in"] != 42 || body["packets_out"] != 17 {
		t.Errorf("totals = %+v, want in=42 out=17", body)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv, store := testServer()
	store.AddTotals(10, 10)
	store.IncrementSource("source1", 5, 2560, time.Unix(1000, 0))
	store.IncrementDestination("dest1", 4, 2048)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body statsResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Hostname != "host-test" {
		t.Errorf("hostname = %q, want host-test", body.Hostname)
	}
	if body.PacketsIn != 10 || body.PacketsOut != 10 {
		t.Errorf("totals = (%d, %d), want (10, 10)", body.PacketsIn, body.PacketsOut)
	}
	if len(body.Sources) != 2 || body.Sources[0].Packets != 5 {
		t.Errorf("sources = %+v", body.Sources)
	}
	if len(body.Destinations) != 1 || body.Destinations[0].Bytes != 2048 {
		t.Errorf("destinations = %+v", body.Destinations)
	}
}
