package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	applog "bakeline/internal/log"
)

func TestHealthEchoesRequestID(t *testing.T) {
	t.Parallel()

	before := time.Now().UTC().Add(-time.Second)
	ctx := applog.WithRequestID(context.Background(), "kiosk-3")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	Health(w, req)

	expectStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}

	var resp healthResponse
	decodeBody(t, w, &resp)
	if resp.Status != "ok" || resp.RequestID != "kiosk-3" {
		t.Fatalf("health = %+v", resp)
	}
	if resp.Time.Before(before) || resp.Time.Location() != time.UTC {
		t.Fatalf("health time = %v", resp.Time)
	}
}

func TestHealthWithoutRequestIDOmitsIt(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	Health(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	expectStatus(t, w, http.StatusOK)
	var body map[string]any
	decodeBody(t, w, &body)
	if _, ok := body["request_id"]; ok {
		t.Fatalf("unexpected request_id in %v", body)
	}
}
