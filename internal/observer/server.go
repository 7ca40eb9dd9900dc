// Package observer implements a read-only HTTP status endpoint and a
// websocket event feed over a workspace, using gorilla/mux for routing
// and gorilla/websocket for the client feed. No mutating routes exist
// here — every engine write still goes through the package-level
// Engine.* calls.
package observer

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/awp-dev/awpengine/internal/events"
	"github.com/gorilla/mux"
)

// StatusSnapshot is the payload served at GET /status.
type StatusSnapshot struct {
	WorkspaceRoot   string    `json:"workspaceRoot"`
	ArtifactCount   int       `json:"artifactCount"`
	ContractCount   int       `json:"contractCount"`
	ProjectCount    int       `json:"projectCount"`
	ProfileCount    int       `json:"profileCount"`
	SubscriberCount int       `json:"subscriberCount"`
	StartedAt       time.Time `json:"startedAt"`
}

// StatusFunc computes a fresh StatusSnapshot on demand.
type StatusFunc func() (StatusSnapshot, error)

// Server serves read-only workspace introspection: a status endpoint and
// a websocket feed of internal/events.Hub activity.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	hub        *events.Hub
	statusFn   StatusFunc
	startTime  time.Time
}

// NewServer builds an observer Server backed by hub and statusFn.
func NewServer(hub *events.Hub, statusFn StatusFunc) *Server {
	s := &Server{hub: hub, statusFn: statusFn, startTime: time.Now()}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// Start runs the HTTP server at addr. Blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.router}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.statusFn()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	snapshot.SubscriberCount = s.hub.SubscriberCount()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}
