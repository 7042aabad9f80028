package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/caucus-labs/caucus/internal/analysis"
	"github.com/caucus-labs/caucus/internal/events"
	"github.com/caucus-labs/caucus/internal/registry"
)

type stubRunner struct {
	report *analysis.Report
	err    error
	got    events.SessionRequest
}

func (r *stubRunner) RunSession(_ context.Context, req events.SessionRequest) (*analysis.Report, error) {
	r.got = req
	return r.report, r.err
}

type stubReports struct {
	report *analysis.Report
	err    error
}

func (r *stubReports) LatestReport(_ context.Context, _ string) (*analysis.Report, error) {
	return r.report, r.err
}

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer(8760, &stubRunner{}, &stubReports{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := NewServer(8760, &stubRunner{}, &stubReports{})

	req := httptest.NewRequest("GET", "/api/v1/caucus/status", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["service"] != "caucus" {
		t.Errorf("expected service caucus, got %q", body["service"])
	}
}

func TestRunSessionEndpoint(t *testing.T) {
	runner := &stubRunner{report: &analysis.Report{SessionID: "session_1"}}
	srv := NewServer(8760, runner, &stubReports{})

	payload := `{
		"study_id": "study-001",
		"topic": "pricing",
		"weighted": true,
		"participants": [{"participant_id": "alice", "weight": 2.0}]
	}`
	req := httptest.NewRequest("POST", "/api/v1/sessions", strings.NewReader(payload))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if runner.got.StudyID != "study-001" {
		t.Errorf("runner saw study_id %q", runner.got.StudyID)
	}

	var report analysis.Report
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if report.SessionID != "session_1" {
		t.Errorf("expected session_1, got %q", report.SessionID)
	}
}

func TestRunSessionEndpoint_BadJSON(t *testing.T) {
	srv := NewServer(8760, &stubRunner{}, &stubReports{})

	req := httptest.NewRequest("POST", "/api/v1/sessions", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestRunSessionEndpoint_InvalidWeightIs400(t *testing.T) {
	runner := &stubRunner{err: fmt.Errorf("participant alice: %w", registry.ErrInvalidWeight)}
	srv := NewServer(8760, runner, &stubReports{})

	payload := `{"study_id": "s", "topic": "t", "participants": [{"participant_id": "alice", "weight": 0}]}`
	req := httptest.NewRequest("POST", "/api/v1/sessions", strings.NewReader(payload))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid weight, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.Contains(body["error"], "alice") {
		t.Errorf("error %q should name the participant", body["error"])
	}
}

func TestSessionReportEndpoint(t *testing.T) {
	reports := &stubReports{report: &analysis.Report{SessionID: "session_7"}}
	srv := NewServer(8760, &stubRunner{}, reports)

	req := httptest.NewRequest("GET", "/api/v1/sessions/session_7/report", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var report analysis.Report
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if report.SessionID != "session_7" {
		t.Errorf("expected session_7, got %q", report.SessionID)
	}
}

func TestSessionReportEndpoint_NotFound(t *testing.T) {
	srv := NewServer(8760, &stubRunner{}, &stubReports{})

	req := httptest.NewRequest("GET", "/api/v1/sessions/missing/report", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv := NewServer(8760, &stubRunner{}, &stubReports{})

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
