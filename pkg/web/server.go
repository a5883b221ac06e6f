package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"

	"vaultgraph/pkg/analysis"
	"vaultgraph/pkg/cycles"
	"vaultgraph/pkg/engine"
	"vaultgraph/pkg/logging"
	"vaultgraph/pkg/model"
	"vaultgraph/pkg/pubsub"
	"vaultgraph/pkg/resolve"
)

//go:embed static/*
var staticFiles embed.FS

// Server exposes the graph, its health reports, and the live delta stream
// over HTTP. All mutation goes through the engine so the single-snapshot
// discipline holds.
type Server struct {
	router    *mux.Router
	engine    *engine.Engine
	publisher *pubsub.SSEPublisher
}

// NewServer creates a web server around an engine and its publisher.
func NewServer(eng *engine.Engine, publisher *pubsub.SSEPublisher) *Server {
	// graph_status: new subscribers only need the current state
	publisher.ConfigureTopic(pubsub.TopicGraphStatus, pubsub.TopicConfig{
		BufferSize: 10,
		ReplayAll:  false,
	})
	// graph_delta: replay recent deltas so late subscribers can catch up
	publisher.ConfigureTopic(pubsub.TopicGraphDelta, pubsub.TopicConfig{
		BufferSize: 50,
		ReplayAll:  true,
	})

	s := &Server{
		router:    mux.NewRouter(),
		engine:    eng,
		publisher: publisher,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestIDMiddleware)

	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/graph_status", s.handleSubscribe(pubsub.TopicGraphStatus)).Methods("GET")
	s.router.HandleFunc("/api/subscribe/graph_delta", s.handleSubscribe(pubsub.TopicGraphDelta)).Methods("GET")

	// API routes - more specific routes must come first
	s.router.HandleFunc("/api/graph", s.handleGraph).Methods("GET")
	s.router.HandleFunc("/api/search", s.handleSearch).Methods("GET")
	s.router.HandleFunc("/api/analysis", s.handleAnalysis).Methods("GET")
	s.router.HandleFunc("/api/cycles", s.handleCycles).Methods("GET")
	s.router.HandleFunc("/api/merge", s.handleMerge).Methods("POST")
	s.router.HandleFunc("/api/undo", s.handleUndo).Methods("POST")
	s.router.HandleFunc("/api/redo", s.handleRedo).Methods("POST")
	s.router.HandleFunc("/api/nodes/{id:.*}", s.handleNode).Methods("GET")

	// Serve static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("failed to mount static files", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

func (s *Server) handleSubscribe(topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// SSE headers
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		// Initial comment to establish the connection (Safari compatibility)
		fmt.Fprintf(w, ": connected\n\n")
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}

		sub, err := s.publisher.Subscribe(r.Context(), topic)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer sub.Close()

		for {
			select {
			case <-r.Context().Done():
				return
			case event, ok := <-sub.Events():
				if !ok {
					return
				}
				if err := pubsub.WriteSSE(w, event); err != nil {
					logging.WarnContext(r.Context(), "error writing SSE event", "error", err)
					return
				}
				if flusher, ok := w.(http.Flusher); ok {
					flusher.Flush()
				}
			}
		}
	}
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.engine.Snapshot())
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	node := s.engine.Snapshot().Node(id)
	if node == nil {
		http.Error(w, "node not found", http.StatusNotFound)
		return
	}
	writeJSON(w, node)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "missing query parameter q", http.StatusBadRequest)
		return
	}
	matches := resolve.RankNodes(query, s.engine.Snapshot())
	if matches == nil {
		matches = []resolve.Match{}
	}
	writeJSON(w, matches)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, analysis.BuildReport(s.engine.Snapshot()))
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	linkCycles := cycles.FindLinkCycles(s.engine.Snapshot())
	if linkCycles == nil {
		linkCycles = []cycles.LinkCycle{}
	}
	writeJSON(w, linkCycles)
}

type mergeRequest struct {
	IDs []model.NodeID `json:"ids"`
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid merge request: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		http.Error(w, "no node ids selected", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.engine.Merge(req.IDs))
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	d, ok := s.engine.Undo()
	if !ok {
		http.Error(w, "nothing to undo", http.StatusConflict)
		return
	}
	writeJSON(w, d)
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	d, ok := s.engine.Redo()
	if !ok {
		http.Error(w, "nothing to redo", http.StatusConflict)
		return
	}
	writeJSON(w, d)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode response", "error", err)
	}
}

// Start runs the server on the given port, blocking until it exits.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("web server listening", "addr", addr)
	err := http.ListenAndServe(addr, s.router)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}
