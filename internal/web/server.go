// Package web provides an HTTP status server for the station controller.
// Every route is read-only; actuators are driven from the ground link only.
package web

import (
	"context"
	"net"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sweeney/station-controller/internal/status"
)

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
}

// New creates a Server that reads state from the given tracker.
func New(addr string, tracker *status.Tracker) *Server {
	s := &Server{tracker: tracker}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handlePage).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/index.html", s.handlePage).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/index.json", s.handleStatus).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/subsystems.json", s.handleSubsystems).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/subsystems/{name}", s.handleSubsystem).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodHead)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "GET, HEAD")
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, s.tracker.Snapshot())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, status.FormatJSON(s.tracker.Snapshot()))
}

func (s *Server) handleSubsystems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, status.FormatSubsystemsJSON(s.tracker.Snapshot()))
}

func (s *Server) handleSubsystem(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	data, ok := status.FormatSubsystemJSON(s.tracker.Snapshot(), name)
	if !ok {
		http.Error(w, "unknown subsystem "+name, http.StatusNotFound)
		return
	}
	writeJSON(w, data)
}

// handleHealth answers 503 until the station has booted.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !s.tracker.Snapshot().Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("booting\n"))
		return
	}
	w.Write([]byte("ok\n"))
}

func writeJSON(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
