package api

import (
	"context"
	"embed"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed static/chat.html
var staticFiles embed.FS

// Answerer answers a medical question from the indexed corpus.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Server is the chatbot HTTP server.
type Server struct {
	router   chi.Router
	answerer Answerer
	stats    *Stats
	log      *slog.Logger
}

// NewServer creates and configures the HTTP server. stats may be nil.
func NewServer(answerer Answerer, stats *Stats, log *slog.Logger) *Server {
	s := &Server{
		answerer: answerer,
		stats:    stats,
		log:      log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/", s.handleIndex)
	r.Post("/get", s.handleChat)
	r.Get("/health", s.handleHealth)
	r.Get("/api/stats/llm", s.handleLLMStats)

	s.router = r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFiles.ReadFile("static/chat.html")
	if err != nil {
		jsonError(w, "chat page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
