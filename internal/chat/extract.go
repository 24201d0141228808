package chat

import (
	"strings"

	"google.golang.org/genai"
)

// ResponseText extracts the usable text from a model response.
//
// resp.Text() is the primary accessor, but it skips thought parts — and some
// Gemini responses carry the reasoning in an early part and the actual answer
// in a later one. When the primary accessor comes back empty, every part of
// the first candidate is flattened in order so nothing is silently dropped.
// Missing candidates, content, or parts yield "" rather than a panic; the
// caller decides whether an empty string is an error.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	if text := strings.TrimSpace(resp.Text()); text != "" {
		return text
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String())
}
