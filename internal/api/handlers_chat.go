package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/dgallion1/medbot/internal/llm"
	"github.com/dgallion1/medbot/internal/rag"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	emptyQuestionAnswer = "Please enter a question."
	greetingAnswer      = "Hello! I’m a medical chatbot. You can ask me health-related questions."

	maxChatBody = 64 << 10
)

var greetings = map[string]bool{
	"hi":           true,
	"hello":        true,
	"hey":          true,
	"hii":          true,
	"good morning": true,
	"good evening": true,
}

// IsGreeting reports whether msg, trimmed and lowercased, is one of the
// canned greetings.
func IsGreeting(msg string) bool {
	return greetings[strings.ToLower(strings.TrimSpace(msg))]
}

type chatRequest struct {
	Msg string `json:"msg"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	msg, err := readMessage(w, r)
	if err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(msg) == "" {
		writeAnswer(w, emptyQuestionAnswer)
		return
	}
	if IsGreeting(msg) {
		writeAnswer(w, greetingAnswer)
		return
	}

	answer, err := s.answerer.Answer(r.Context(), msg)
	if err != nil {
		s.log.Error("answer failed",
			"kind", rag.Kind(err),
			"transient", llm.IsTransient(err),
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		jsonError(w, "failed to answer question", http.StatusInternalServerError)
		return
	}
	writeAnswer(w, answer)
}

// readMessage accepts {"msg": "..."} JSON or a form field named msg.
func readMessage(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return req.Msg, nil
	}

	if err := r.ParseForm(); err != nil {
		return "", err
	}
	return r.PostFormValue("msg"), nil
}

func writeAnswer(w http.ResponseWriter, answer string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chatResponse{Answer: answer})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
