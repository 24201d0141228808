package chat

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// ContentGenerator is the slice of the Gemini API the session layer depends
// on. *genai.Models satisfies it; tests substitute fakes.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Session is an ordered multi-turn conversation with the model. Every Send
// replays the accumulated history plus the new user turn, so later turns keep
// the full context of earlier ones — including any inline image from the
// first turn.
type Session struct {
	gen    ContentGenerator
	model  string
	config *genai.GenerateContentConfig

	mu      sync.Mutex
	history []*genai.Content
}

// NewSession creates a fresh conversation with empty history.
func NewSession(gen ContentGenerator, model string, config *genai.GenerateContentConfig) *Session {
	return &Session{
		gen:    gen,
		model:  model,
		config: config,
	}
}

// Send appends the given parts as a user turn, submits the whole conversation
// to the model, records the model's reply in the history, and returns the raw
// response. A failed call leaves the history untouched.
func (s *Session) Send(ctx context.Context, parts ...*genai.Part) (*genai.GenerateContentResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents := append(slices.Clone(s.history), &genai.Content{
		Role:  genai.RoleUser,
		Parts: parts,
	})

	resp, err := s.gen.GenerateContent(ctx, s.model, contents, s.config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("received empty response from Gemini API")
	}

	s.history = contents
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		reply := &genai.Content{
			Role:  genai.RoleModel,
			Parts: resp.Candidates[0].Content.Parts,
		}
		s.history = append(s.history, reply)
	}

	log.Debug().
		Str("model", s.model).
		Int("history_len", len(s.history)).
		Msg("Session turn complete")

	return resp, nil
}

// Turns reports how many contents (user and model) the session has recorded.
func (s *Session) Turns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}
