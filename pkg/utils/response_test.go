package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusBadRequest, "bad date")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "bad date" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestRespondJSONReportsEncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	err := RespondJSON(rec, http.StatusOK, map[string]any{"bad": make(chan int)})

	if err == nil {
		t.Fatal("expected encode error")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] == "" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestRespondJSONWritesPayload(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := RespondJSON(rec, http.StatusCreated, map[string]int{"count": 3}); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"count\":3}\n" {
		t.Fatalf("unexpected body %q", got)
	}
}
