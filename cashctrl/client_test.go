package cashctrl

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (API, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("CASHCTRL_API_BASE_URL", srv.URL)
	api, err := NewClient("testorg", "key-123")
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return api, srv
}

func TestClient_ListDecodesRecords(t *testing.T) {
	var gotPath, gotUser string
	api, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, _, _ = r.BasicAuth()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 1, "code": "m3"}, {"id": 2, "code": "kwh"}]`))
	}))

	records, err := api.List(context.Background(), "inventory/unit")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if gotPath != "/inventory/unit/list.json" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotUser != "key-123" {
		t.Fatalf("expected api key as basic-auth user, got %q", gotUser)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if remoteID(records[0]) != 1 || remoteID(records[1]) != 2 {
		t.Fatalf("remote ids not decoded: %v", records)
	}
}

func TestClient_RetriesTransportFailures(t *testing.T) {
	var calls int32
	api, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))

	if _, err := api.List(context.Background(), "location"); err != nil {
		t.Fatalf("expected third attempt to succeed, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestClient_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	api, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := api.List(context.Background(), "location")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if transportErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected status 500 recorded, got %d", transportErr.Status)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestClient_RemoteRejectionIsNotRetried(t *testing.T) {
	var calls int32
	api, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": false, "error": "name already taken"}`))
	}))

	_, err := api.Create(context.Background(), "inventory/unit", map[string]any{"code": "m3"})
	var rejection *RemoteRejection
	if !errors.As(err, &rejection) {
		t.Fatalf("expected RemoteRejection, got %v", err)
	}
	if rejection.Message != "name already taken" {
		t.Fatalf("unexpected message %q", rejection.Message)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("business rejections must not retry, got %d calls", calls)
	}
}

func TestClient_DeleteSendsId(t *testing.T) {
	var gotBody string
	api, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		_, _ = w.Write([]byte(`{"success": true}`))
	}))

	if _, err := api.Delete(context.Background(), "location", 12); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if gotBody != `{"id":12}` {
		t.Fatalf("unexpected delete body %s", gotBody)
	}
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	if _, err := NewClient("org", ""); err == nil {
		t.Fatalf("expected error for empty api key")
	}
	if _, err := NewClient("", "key"); err == nil {
		t.Fatalf("expected error for empty org id")
	}
}
