package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
)

func testConfig(t *testing.T) *Config {
	t.Helper()

	return &Config{
		bind:            "127.0.0.1",
		port:            8080,
		dataFile:        filepath.Join(t.TempDir(), "game_data.json"),
		storeRetries:    3,
		storeRetryDelay: 5 * time.Millisecond,
	}
}

func newTestStore(t *testing.T, cfg *Config) *FileStore {
	t.Helper()

	store, err := NewFileStore(cfg.dataFile, cfg.storeRetries, cfg.storeRetryDelay)
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}

	return store
}

func newTestServer(t *testing.T) (*Config, *FileStore, *httprouter.Router) {
	t.Helper()

	cfg := testConfig(t)
	store := newTestStore(t, cfg)

	hub := newHub()
	go hub.run(cfg)

	errs := make(chan error, 64)

	return cfg, store, newRouter(cfg, store, hub, errs)
}

func doRequest(t *testing.T, mux *httprouter.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	return w
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()

	if w.Code != expected {
		t.Fatalf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()

	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, expected string) {
	t.Helper()

	var body errorBody
	decodeJSON(t, w, &body)

	if body.ErrorCode != expected {
		t.Errorf("Expected error code %q, got %q (%s)", expected, body.ErrorCode, body.Error)
	}
	if body.Error == "" {
		t.Error("Expected a human-readable error message")
	}
	if body.Timestamp == "" {
		t.Error("Expected a timestamp on the error body")
	}
}

func registerTestParticipant(t *testing.T, mux *httprouter.Router, name string) Participant {
	t.Helper()

	w := doRequest(t, mux, http.MethodPost, "/api/participants", map[string]string{"name": name})
	assertStatus(t, w, http.StatusCreated)

	var p Participant
	decodeJSON(t, w, &p)

	return p
}

func addTestGift(t *testing.T, mux *httprouter.Router, name string, ownerID *int) Gift {
	t.Helper()

	body := map[string]any{"name": name}
	if ownerID != nil {
		body["owner_id"] = *ownerID
	}

	w := doRequest(t, mux, http.MethodPost, "/api/gifts", body)
	assertStatus(t, w, http.StatusCreated)

	var g Gift
	decodeJSON(t, w, &g)

	return g
}

func stealTestGift(t *testing.T, mux *httprouter.Router, giftID string, newOwnerID int) giftResponse {
	t.Helper()

	w := doRequest(t, mux, http.MethodPut, "/api/gifts/"+giftID+"/steal", map[string]int{"new_owner_id": newOwnerID})
	assertStatus(t, w, http.StatusOK)

	var resp giftResponse
	decodeJSON(t, w, &resp)

	return resp
}

func intPtr(i int) *int {
	return &i
}
