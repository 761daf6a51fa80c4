package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/medbot/internal/llm"
)

// Stats exposes provider latencies on /api/stats/llm.
type Stats struct {
	EmbeddingProvider string
	LLMProvider       string
	Model             string
	Embed             *llm.LatencyStats
	Generate          *llm.LatencyStats
}

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil || s.stats.Embed == nil || s.stats.Generate == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"embedding_provider": s.stats.EmbeddingProvider,
		"llm_provider":       s.stats.LLMProvider,
		"model":              s.stats.Model,
		"embed":              s.stats.Embed.Snapshot(),
		"generate":           s.stats.Generate.Snapshot(),
	})
}
