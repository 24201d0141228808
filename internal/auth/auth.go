// Package auth handles Gemini API key retrieval and startup validation.
package auth

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// GetAPIKey retrieves the Gemini API key from the GEMINI_API_KEY environment
// variable. A .env file loaded at startup feeds the same variable.
func GetAPIKey() (string, error) {
	if key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); key != "" {
		log.Debug().Msg("Using API key from environment variable")
		return key, nil
	}
	return "", fmt.Errorf("API key not found. Set GEMINI_API_KEY in the environment or a .env file")
}
