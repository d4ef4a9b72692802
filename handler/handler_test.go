package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"picky/handler"
	"picky/service"
	"picky/store"
)

func setup() (*httptest.Server, *store.MemoryStore) {
	st := store.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(st, logger)
	h := handler.New(svc, "test", logger)
	return httptest.NewServer(h), st
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func decodeJSON(t *testing.T, r io.Reader) map[string]any {
	t.Helper()
	var v map[string]any
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		t.Fatal(err)
	}
	return v
}

func decodeJSONArray(t *testing.T, r io.Reader) []any {
	t.Helper()
	var v []any
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		t.Fatal(err)
	}
	return v
}

func do(t *testing.T, method, url string, body []byte) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestRootAndHealth(t *testing.T) {
	ts, _ := setup()
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeJSON(t, resp.Body)
	if body["status"] != "ok" {
		t.Fatalf("expected status=ok, got %v", body["status"])
	}

	resp, _ = http.Get(ts.URL + "/api/health")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	health := decodeJSON(t, resp.Body)
	if health["connected"] != true {
		t.Fatalf("expected connected=true, got %v", health["connected"])
	}
	if health["storage_type"] != "memory" {
		t.Fatalf("expected storage_type=memory, got %v", health["storage_type"])
	}
}

func TestShoppingItemLifecycle(t *testing.T) {
	ts, _ := setup()
	defer ts.Close()

	// empty list
	resp, _ := http.Get(ts.URL + "/api/shopping-items")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if items := decodeJSONArray(t, resp.Body); len(items) != 0 {
		t.Fatalf("expected 0 items, got %d", len(items))
	}

	// create
	resp = do(t, "POST", ts.URL+"/api/shopping-items", mustJSON(t, map[string]any{"name": "Milk"}))
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	created := decodeJSON(t, resp.Body)
	if created["success"] != true {
		t.Fatalf("expected success=true, got %v", created)
	}
	doc := created["item"].(map[string]any)
	if doc["inCart"] != false {
		t.Fatalf("expected inCart=false, got %v", doc["inCart"])
	}
	id, _ := doc["id"].(string)
	if id == "" {
		t.Fatal("expected non-empty id")
	}

	// list has exactly the new item
	resp, _ = http.Get(ts.URL + "/api/shopping-items")
	items := decodeJSONArray(t, resp.Body)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].(map[string]any)["name"] != "Milk" {
		t.Fatalf("expected name=Milk, got %v", items[0])
	}

	// update
	resp = do(t, "PUT", ts.URL+"/api/shopping-items/"+id, mustJSON(t, map[string]any{"inCart": true}))
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	updated := decodeJSON(t, resp.Body)["item"].(map[string]any)
	if updated["inCart"] != true {
		t.Fatalf("expected inCart=true, got %v", updated["inCart"])
	}
	if updated["name"] != "Milk" {
		t.Fatalf("expected name unchanged, got %v", updated["name"])
	}

	// delete
	resp = do(t, "DELETE", ts.URL+"/api/shopping-items/"+id, nil)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	// gone from the list, second delete is 404
	resp, _ = http.Get(ts.URL + "/api/shopping-items")
	if items := decodeJSONArray(t, resp.Body); len(items) != 0 {
		t.Fatalf("expected 0 items after delete, got %d", len(items))
	}
	resp = do(t, "DELETE", ts.URL+"/api/shopping-items/"+id, nil)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 on second delete, got %d", resp.StatusCode)
	}
}

func TestCreateValidation(t *testing.T) {
	ts, _ := setup()
	defer ts.Close()

	// blank name
	resp := do(t, "POST", ts.URL+"/api/larder-items", mustJSON(t, map[string]any{"name": ""}))
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decodeJSON(t, resp.Body)
	if !strings.Contains(body["error"].(string), "name") {
		t.Fatalf("expected actionable name message, got %v", body["error"])
	}

	// invalid JSON
	resp = do(t, "POST", ts.URL+"/api/larder-items", []byte("{not json"))
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	// nothing persisted
	resp, _ = http.Get(ts.URL + "/api/larder-items")
	if items := decodeJSONArray(t, resp.Body); len(items) != 0 {
		t.Fatalf("expected 0 items, got %d", len(items))
	}
}

func TestUpdateMealIngredients(t *testing.T) {
	ts, _ := setup()
	defer ts.Close()

	resp := do(t, "POST", ts.URL+"/api/meal-items", mustJSON(t, map[string]any{"name": "Pancakes"}))
	created := decodeJSON(t, resp.Body)["item"].(map[string]any)
	id := created["id"].(string)
	prevModified := created["modifiedAt"].(string)

	resp = do(t, "PUT", ts.URL+"/api/meal-items/"+id, mustJSON(t, map[string]any{"ingredients": "eggs, flour"}))
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	updated := decodeJSON(t, resp.Body)["item"].(map[string]any)
	if updated["name"] != "Pancakes" {
		t.Fatalf("expected name unchanged, got %v", updated["name"])
	}
	if updated["ingredients"] != "eggs, flour" {
		t.Fatalf("expected ingredients updated, got %v", updated["ingredients"])
	}
	prev, err := time.Parse(time.RFC3339Nano, prevModified)
	if err != nil {
		t.Fatal(err)
	}
	next, err := time.Parse(time.RFC3339Nano, updated["modifiedAt"].(string))
	if err != nil {
		t.Fatal(err)
	}
	if next.Before(prev) {
		t.Fatal("expected modifiedAt to advance")
	}
}

func TestUpdateUnknownIDIs404(t *testing.T) {
	ts, _ := setup()
	defer ts.Close()

	resp := do(t, "PUT", ts.URL+"/api/meal-items/nope", mustJSON(t, map[string]any{"name": "X"}))
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCallerSuppliedIDIsIgnored(t *testing.T) {
	ts, _ := setup()
	defer ts.Close()

	resp := do(t, "POST", ts.URL+"/api/shopping-items",
		mustJSON(t, map[string]any{"name": "Eggs", "id": "chosen"}))
	doc := decodeJSON(t, resp.Body)["item"].(map[string]any)
	if doc["id"] == "chosen" {
		t.Fatal("caller-supplied id must be discarded")
	}
}

func TestCORSPreflight(t *testing.T) {
	st := store.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.New(service.New(st, logger), "test", logger)
	ts := httptest.NewServer(handler.CORS(h, []string{"*"}))
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/shopping-items", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("expected wildcard CORS header")
	}
}

func TestRequestLoggingSetsRequestID(t *testing.T) {
	st := store.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.New(service.New(st, logger), "test", logger)
	ts := httptest.NewServer(handler.RequestLogging(logger)(h))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatal("expected X-Request-Id header")
	}
}
