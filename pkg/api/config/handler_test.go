package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dcf_builder/pkg/core/engine/fast"
	"dcf_builder/pkg/core/engine/loader"
)

func TestHandleConfigAndSwitch(t *testing.T) {
	h := NewHandler(loader.NewActive(fast.New(), loader.Options{}), "file")

	rec := httptest.NewRecorder()
	h.HandleConfig(rec, httptest.NewRequest(http.MethodGet, "/api/v1/config", nil))
	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.ActiveEngine != "fast" {
		t.Errorf("Expected fast, got %s", resp.ActiveEngine)
	}
	if len(resp.Available) != 2 || resp.CaseStore != "file" {
		t.Errorf("Unexpected config response: %+v", resp)
	}

	rec = httptest.NewRecorder()
	h.HandleSwitch(rec, httptest.NewRequest(http.MethodPost, "/api/v1/config/engine", strings.NewReader(`{"engine":"exact"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if h.Engines.Engine().Name() != "exact" {
		t.Errorf("Expected exact after switch, got %s", h.Engines.Engine().Name())
	}
}

func TestHandleSwitchRejectsUnknownEngine(t *testing.T) {
	h := NewHandler(loader.NewActive(fast.New(), loader.Options{}), "")

	rec := httptest.NewRecorder()
	h.HandleSwitch(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"engine":"gpu"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.HandleSwitch(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`not json`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad body, got %d", rec.Code)
	}
	if h.Engines.Engine().Name() != "fast" {
		t.Errorf("Expected fast to remain active")
	}
}
