package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"matchday/internal/config"
	"matchday/internal/match"
)

func testServer() *Server {
	cfg := config.DefaultServer()
	// High limits so tests never trip the IP limiter.
	cfg.RatePerSecond = 1000
	cfg.RateBurst = 1000
	return NewServer(cfg, config.DefaultSimLimits(), nil)
}

func TestHealthz(t *testing.T) {
	ts := httptest.NewServer(testServer().Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestSimulateRejectsBadFormation(t *testing.T) {
	ts := httptest.NewServer(testServer().Router())
	defer ts.Close()

	plan := match.DefaultPlan(1)
	plan.Home.Formation = "1-1-8"
	body, _ := json.Marshal(plan)

	resp, err := http.Post(ts.URL+"/api/simulate", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["code"] != match.CodeUnsupportedFormation {
		t.Errorf("code = %s", payload["code"])
	}
}

func TestSimulateMalformedJSON(t *testing.T) {
	ts := httptest.NewServer(testServer().Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/simulate", "application/json", bytes.NewReader([]byte("{")))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestArchiveEndpointsWithoutArchive(t *testing.T) {
	ts := httptest.NewServer(testServer().Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/matches")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501 when the archive is disabled", resp.StatusCode)
	}
}
