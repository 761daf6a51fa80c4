package chunker

import (
	"strings"

	"github.com/dgallion1/medbot/internal/document"
)

// EstimateTokens approximates the token count of text at about 1.33 tokens
// per word. Good enough for sizing embedding batches, not for billing.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return max(1, int(float64(words)*1.33))
}

// EstimateChunkTokens sums EstimateTokens over chunks.
func EstimateChunkTokens(chunks []document.Chunk) int {
	total := 0
	for _, c := range chunks {
		total += EstimateTokens(c.Text)
	}
	return total
}
