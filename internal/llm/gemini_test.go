package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

// redirect sends every request to target, keeping path and query.
type redirect struct {
	target *url.URL
}

func (rt redirect) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	req.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func newTestGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	g, err := NewGemini(context.Background(), GeminiConfig{
		APIKey:         "gk",
		EmbeddingModel: "text-embedding-004",
		ChatModel:      "gemini-1.5-flash",
		Dimension:      3,
		ClientOptions:  []option.ClientOption{option.WithHTTPClient(&http.Client{Transport: redirect{target}})},
	})
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func TestGeminiEmbed(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/text-embedding-004:batchEmbedContents"), r.URL.Path)

		var req struct {
			Requests []struct {
				Model   string `json:"model"`
				Content struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"content"`
			} `json:"requests"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Requests, 2)
		assert.Equal(t, "models/text-embedding-004", req.Requests[0].Model)
		assert.Equal(t, "fever", req.Requests[0].Content.Parts[0].Text)
		assert.Equal(t, "cough", req.Requests[1].Content.Parts[0].Text)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"embeddings":[{"values":[0.1,0.2,0.3]},{"values":[0.4,0.5,0.6]}]}`))
	})

	assert.Equal(t, 3, g.Dimension())
	vecs, err := g.Embed(context.Background(), []string{"fever", "cough"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}}, vecs)
}

func TestGeminiEmbed_Empty(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})
	vecs, err := g.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestGeminiEmbed_CountMismatch(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"embeddings":[{"values":[0.1,0.2,0.3]}]}`))
	})
	_, err := g.Embed(context.Background(), []string{"a", "b"})
	assert.ErrorContains(t, err, "got 1 vectors for 2 inputs")
}

func TestGeminiGenerate(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-1.5-flash:generateContent"), r.URL.Path)

		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
			GenerationConfig struct {
				Temperature     float64 `json:"temperature"`
				MaxOutputTokens int     `json:"maxOutputTokens"`
			} `json:"generationConfig"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "What is gout?", req.Contents[0].Parts[0].Text)
		assert.InDelta(t, 0.2, req.GenerationConfig.Temperature, 1e-6)
		assert.Equal(t, 512, req.GenerationConfig.MaxOutputTokens)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":" Gout is a form "},{"text":"of arthritis. "}]}}]}`))
	})

	assert.Equal(t, "gemini-1.5-flash", g.Model())
	out, err := g.Generate(context.Background(), "What is gout?", GenerateOptions{Temperature: 0.2, MaxTokens: 512})
	require.NoError(t, err)
	assert.Equal(t, "Gout is a form of arthritis.", out)
}

func TestGeminiGenerate_NoCandidates(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[]}`))
	})
	_, err := g.Generate(context.Background(), "q", GenerateOptions{})
	assert.ErrorContains(t, err, "gemini generate")
}

func TestGeminiGenerate_APIError(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	})
	_, err := g.Generate(context.Background(), "q", GenerateOptions{})
	assert.ErrorContains(t, err, "gemini generate")
}
