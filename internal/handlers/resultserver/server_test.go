package resultserver

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	s := NewServer(
		func(id string) ([]byte, string, bool) {
			if id == "current" {
				return []byte("png-bytes"), "image/png", true
			}
			return nil, "", false
		},
		func() ([]byte, bool) {
			return []byte(`{"type":"Polygon","coordinates":[]}`), true
		},
		false,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/results/", s.handleResult)
	mux.HandleFunc("/aoi.geojson", s.handleAOI)
	return corsMiddleware(mux)
}

func TestHandleResult(t *testing.T) {
	server := httptest.NewServer(newTestHandler(t))
	defer server.Close()

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantType   string
		wantBody   string
	}{
		{name: "known id", path: "/results/current", wantStatus: http.StatusOK, wantType: "image/png", wantBody: "png-bytes"},
		{name: "unknown id", path: "/results/nope", wantStatus: http.StatusNotFound},
		{name: "empty id", path: "/results/", wantStatus: http.StatusBadRequest},
		{name: "traversal id", path: "/results/a/b", wantStatus: http.StatusBadRequest},
		{name: "aoi", path: "/aoi.geojson", wantStatus: http.StatusOK, wantType: "application/geo+json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(server.URL + tt.path)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantType != "" && resp.Header.Get("Content-Type") != tt.wantType {
				t.Errorf("content type = %q, want %q", resp.Header.Get("Content-Type"), tt.wantType)
			}
			if tt.wantBody != "" {
				body, _ := io.ReadAll(resp.Body)
				if string(body) != tt.wantBody {
					t.Errorf("body = %q, want %q", body, tt.wantBody)
				}
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	server := httptest.NewServer(newTestHandler(t))
	defer server.Close()

	req, _ := http.NewRequest("OPTIONS", server.URL+"/results/current", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("preflight status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing Access-Control-Allow-Origin header")
	}
}
