// Package render builds request URLs for the external text-to-image service.
// The service renders an image for whatever prompt is embedded in the URL, so
// a RenderRequest is just a fully-formed URL handed back to the client — the
// image itself is fetched browser-side, never proxied here.
package render

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the public pollinations.ai endpoint.
	DefaultBaseURL = "https://image.pollinations.ai"

	// Width and Height are fixed render dimensions. 512px keeps generation
	// fast enough for an interactive flow.
	Width  = 512
	Height = 512

	// StyleSuffix is appended to every analysis-derived prompt so the
	// reference image always comes back as a neutral wooden mannequin rather
	// than a synthetic person.
	StyleSuffix = "3D wooden mannequin, articulated joints, studio lighting, solid grey background, minimalist, high quality, photorealistic wood texture"
)

// Builder constructs render URLs against a configurable endpoint base.
type Builder struct {
	baseURL string
}

// NewBuilder returns a Builder for the given endpoint base.
// An empty base falls back to DefaultBaseURL.
func NewBuilder(baseURL string) *Builder {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Builder{baseURL: baseURL}
}

// URL returns the full render request for the given prompt, URL-escaped and
// carrying the fixed dimensions and no-logo flag.
func (b *Builder) URL(prompt string) string {
	return fmt.Sprintf("%s/prompt/%s?width=%d&height=%d&nologo=true",
		b.baseURL, url.PathEscape(prompt), Width, Height)
}

// StyledURL appends the fixed style suffix to the prompt before building the
// URL. Used on the analysis path, where the prompt comes from structured
// advice; the refinement path asks the model to include the keywords itself.
func (b *Builder) StyledURL(prompt string) string {
	return b.URL(prompt + ", " + StyleSuffix)
}
