package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prasetya/wilayah/internal/cache"
	"github.com/prasetya/wilayah/internal/groundtruth"
	"github.com/prasetya/wilayah/internal/testutil"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	ix := testutil.LoadIndex(t)
	meta := &cache.Metadata{
		Version:   "v4.0.0",
		FetchedAt: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
	}
	router := NewRouter(
		func() *groundtruth.Index { return ix },
		func() *cache.Metadata { return meta },
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, wantStatus int) map[string]any {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return body
}

func TestGetArea(t *testing.T) {
	srv := testServer(t)

	body := getJSON(t, srv.URL+"/areas/province/11", http.StatusOK)
	if body["name"] != "ACEH" || body["code"] != "11" {
		t.Errorf("body = %v", body)
	}

	body = getJSON(t, srv.URL+"/areas/regency/11.01", http.StatusOK)
	if body["parent_code"] != "11" {
		t.Errorf("parent_code = %v", body["parent_code"])
	}
}

func TestGetAreaNotFound(t *testing.T) {
	srv := testServer(t)
	getJSON(t, srv.URL+"/areas/province/99", http.StatusNotFound)
}

func TestGetAreaBadType(t *testing.T) {
	srv := testServer(t)
	getJSON(t, srv.URL+"/areas/galaxy/11", http.StatusBadRequest)
}

func TestListChildren(t *testing.T) {
	srv := testServer(t)

	body := getJSON(t, srv.URL+"/areas/province/11/children", http.StatusOK)
	if body["type"] != "regency" {
		t.Errorf("child type = %v", body["type"])
	}
	if body["total"] != float64(4) {
		t.Errorf("total = %v, want 4", body["total"])
	}

	// Islands sit outside the subdivision chain and have no child type.
	getJSON(t, srv.URL+"/areas/island/11.01.40001/children", http.StatusBadRequest)

	// Unknown parent code is a 404 even when the type is valid.
	getJSON(t, srv.URL+"/areas/province/99/children", http.StatusNotFound)
}

func TestSearch(t *testing.T) {
	srv := testServer(t)

	body := getJSON(t, srv.URL+"/search?area=regency&q=ACEH+SELTAN&parent=11&limit=2", http.StatusOK)
	results, ok := body["results"].([]any)
	if !ok || len(results) == 0 {
		t.Fatalf("results = %v", body["results"])
	}
	if len(results) > 2 {
		t.Errorf("limit not honored, got %d results", len(results))
	}
	top := results[0].(map[string]any)
	rec := top["area"].(map[string]any)
	if rec["code"] != "11.01" {
		t.Errorf("top match = %v", rec)
	}
	if top["score"].(float64) < 90 {
		t.Errorf("score = %v", top["score"])
	}
}

func TestSearchValidation(t *testing.T) {
	srv := testServer(t)
	getJSON(t, srv.URL+"/search?q=ACEH", http.StatusBadRequest)
	getJSON(t, srv.URL+"/search?area=province", http.StatusBadRequest)
}

func TestVersion(t *testing.T) {
	srv := testServer(t)
	body := getJSON(t, srv.URL+"/version", http.StatusOK)
	if body["cached"] != true || body["version"] != "v4.0.0" {
		t.Errorf("body = %v", body)
	}
}
