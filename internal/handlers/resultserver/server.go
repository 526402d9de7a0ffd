// Package resultserver runs the local HTTP bridge between the Go backend
// and the embedded map frontend. Wails bindings are awkward for binary
// payloads, so fetched rasters are served over plain URLs the map widget
// can hand straight to an image overlay.
package resultserver

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
)

// ResultResolver returns the raster bytes and content type for a result id.
// The id is either "current" or a cache key from the fetch history.
type ResultResolver func(id string) (data []byte, contentType string, ok bool)

// AOIResolver returns the current area of interest as GeoJSON
type AOIResolver func() (geojson []byte, ok bool)

// Server manages the result bridge HTTP server
type Server struct {
	resolveResult ResultResolver
	resolveAOI    AOIResolver
	baseURL       string
	devMode       bool
}

// NewServer creates a new result server instance
func NewServer(resolveResult ResultResolver, resolveAOI AOIResolver, devMode bool) *Server {
	return &Server{
		resolveResult: resolveResult,
		resolveAOI:    resolveAOI,
		devMode:       devMode,
	}
}

// BaseURL returns the server URL, set after Start
func (s *Server) BaseURL() string {
	return s.baseURL
}

// ResultURL returns the bridge URL for a result id
func (s *Server) ResultURL(id string) string {
	return fmt.Sprintf("%s/results/%s", s.baseURL, id)
}

// corsMiddleware adds CORS headers to allow requests from Wails frontend
// On macOS/Linux, Wails uses wails://wails origin which requires CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Allow all origins (needed for wails://wails on macOS/Linux)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")

		// Handle preflight OPTIONS request
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Start starts the bridge on a random loopback port
func (s *Server) Start() error {
	// Create a new mux to avoid global state conflicts
	mux := http.NewServeMux()
	mux.HandleFunc("/results/", s.handleResult)
	mux.HandleFunc("/aoi.geojson", s.handleAOI)

	// Listen on a random available port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to start result server: %w", err)
	}

	port := listener.Addr().(*net.TCPAddr).Port
	s.baseURL = fmt.Sprintf("http://127.0.0.1:%d", port)
	log.Printf("[ResultServer] Started on %s", s.baseURL)

	// Wrap mux with CORS middleware
	server := &http.Server{
		Handler: corsMiddleware(mux),
	}

	// Start server in goroutine
	go func() {
		if err := server.Serve(listener); err != nil {
			log.Printf("[ResultServer] Stopped: %v", err)
		}
	}()

	return nil
}

// handleResult serves raster bytes for one result
// URL format: /results/{id}
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/results/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Invalid result id", http.StatusBadRequest)
		return
	}

	data, contentType, ok := s.resolveResult(id)
	if !ok {
		if s.devMode {
			log.Printf("[ResultServer] Result %s not found", id)
		}
		http.Error(w, "Result not found", http.StatusNotFound)
		return
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	// The same id never maps to different bytes, so let the frontend cache
	w.Header().Set("Cache-Control", "max-age=3600")
	w.Write(data)
}

// handleAOI serves the current area of interest so the map can re-display it
func (s *Server) handleAOI(w http.ResponseWriter, r *http.Request) {
	data, ok := s.resolveAOI()
	if !ok {
		http.Error(w, "No area of interest", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(data)
}
