// Package advisor orchestrates the two-turn photography coaching
// conversation: an image-analysis turn that opens a fresh model session, and
// an optional pose-refinement turn that resumes it. The second turn only
// works because the provider retains the visual context of the first —
// nothing else carries the image forward.
package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/poselens/poselens/internal/chat"
	"github.com/poselens/poselens/internal/imaging"
	"github.com/poselens/poselens/internal/jsonutil"
	"github.com/poselens/poselens/internal/render"
	"github.com/poselens/poselens/internal/session"
)

const (
	// analysisTemperature keeps the structured analysis near-deterministic.
	analysisTemperature = 0.2

	// maxOutputTokens bounds the analysis reply.
	maxOutputTokens = 2048
)

// Options tunes the service. Zero values fall back to defaults.
type Options struct {
	Model           string
	MaxImageWidth   int
	JPEGQuality     int
	AnalysisTimeout time.Duration
	RefineTimeout   time.Duration
}

// Service runs the orchestration pipeline against a content generator and a
// session registry.
type Service struct {
	gen      chat.ContentGenerator
	sessions *session.Registry
	render   *render.Builder
	opts     Options
}

// New creates a Service. gen is typically client.Models from a genai client.
func New(gen chat.ContentGenerator, sessions *session.Registry, builder *render.Builder, opts Options) *Service {
	if opts.Model == "" {
		opts.Model = chat.GetModelName()
	}
	if opts.MaxImageWidth <= 0 {
		opts.MaxImageWidth = imaging.DefaultMaxWidth
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = imaging.DefaultJPEGQuality
	}
	if opts.AnalysisTimeout <= 0 {
		opts.AnalysisTimeout = 15 * time.Second
	}
	if opts.RefineTimeout <= 0 {
		opts.RefineTimeout = 30 * time.Second
	}
	if builder == nil {
		builder = render.NewBuilder("")
	}
	return &Service{
		gen:      gen,
		sessions: sessions,
		render:   builder,
		opts:     opts,
	}
}

// Analysis is the structured advice payload returned by the model.
type Analysis struct {
	Light   []string `json:"light"`
	Subject []string `json:"subject"`
	Tech    []string `json:"tech"`
}

// Advice pairs the structured analysis with the optional pose prompt.
type Advice struct {
	Analysis   Analysis `json:"analysis"`
	PosePrompt string   `json:"pose_prompt,omitempty"`
}

// AnalyzeResult is the full outcome of one analysis request.
type AnalyzeResult struct {
	SessionID string
	Advice    Advice
	ImageURL  string
}

// Analyze normalizes the uploaded image, opens a fresh conversation session,
// asks the model for structured advice, and derives the pose-reference render
// URL. The session is registered so a later RefinePose call can resume it.
func (s *Service) Analyze(ctx context.Context, encodedImage, language string) (*AnalyzeResult, error) {
	if strings.TrimSpace(encodedImage) == "" {
		return nil, fmt.Errorf("%w: image data not found", ErrValidation)
	}

	raw, err := imaging.DecodeDataURL(encodedImage)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	normalized, mimeType, err := imaging.Normalize(raw, s.opts.MaxImageWidth, s.opts.JPEGQuality)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	// EXIF lives in the original bytes; normalization strips it.
	capture := imaging.ExtractCaptureContext(raw)

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(analysisTemperature)),
		MaxOutputTokens: maxOutputTokens,
	}
	sess := chat.NewSession(s.gen, s.opts.Model, config)
	sessionID := s.sessions.Put(sess)

	callCtx, cancel := context.WithTimeout(ctx, s.opts.AnalysisTimeout)
	defer cancel()

	start := time.Now()
	resp, err := sess.Send(callCtx,
		&genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: normalized}},
		&genai.Part{Text: analysisPrompt(language, capture)},
	)
	if err != nil {
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("Analysis turn failed")
		return nil, classifySendError(err)
	}

	text := chat.ResponseText(resp)
	if text == "" {
		return nil, fmt.Errorf("%w: response carried no text", ErrMalformedResponse)
	}

	advice, err := jsonutil.ParseJSON[Advice](text)
	if err != nil {
		log.Error().Err(err).Msg("Analysis response is not valid JSON")
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	prompt := strings.TrimSpace(advice.PosePrompt)
	if prompt == "" {
		prompt = strings.Join(advice.Analysis.Subject, ",")
	}

	log.Info().
		Str("session_id", sessionID).
		Str("language", language).
		Int("light", len(advice.Analysis.Light)).
		Int("subject", len(advice.Analysis.Subject)).
		Int("tech", len(advice.Analysis.Tech)).
		Dur("duration", time.Since(start)).
		Msg("Analysis complete")

	return &AnalyzeResult{
		SessionID: sessionID,
		Advice:    advice,
		ImageURL:  s.render.StyledURL(prompt),
	}, nil
}

// RefineResult is the outcome of one pose-refinement request.
type RefineResult struct {
	ImageURL string
}

// RefinePose resumes the session identified by sessionID and asks the model
// for a free-text pose-reference generation prompt incorporating the supplied
// adjustments. It cannot run standalone: without a live session there is no
// remembered image to correct.
func (s *Service) RefinePose(ctx context.Context, sessionID, poseSummary string) (*RefineResult, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: session %q", ErrNoContext, sessionID)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.RefineTimeout)
	defer cancel()

	start := time.Now()
	resp, err := sess.Send(callCtx, &genai.Part{Text: refinePrompt(poseSummary)})
	if err != nil {
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("Refinement turn failed")
		return nil, classifySendError(err)
	}

	text := strings.TrimSpace(chat.ResponseText(resp))
	if text == "" {
		return nil, fmt.Errorf("%w: response carried no text", ErrMalformedResponse)
	}

	log.Info().
		Str("session_id", sessionID).
		Int("prompt_length", len(text)).
		Dur("duration", time.Since(start)).
		Msg("Pose refinement complete")

	// The refinement instruction already demands the mannequin keywords, so
	// the raw text is used as-is.
	return &RefineResult{ImageURL: s.render.URL(text)}, nil
}
