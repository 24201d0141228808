package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/poselens/poselens/internal/advisor"
	"github.com/poselens/poselens/internal/auth"
	"github.com/poselens/poselens/internal/chat"
	"github.com/poselens/poselens/internal/config"
	"github.com/poselens/poselens/internal/logging"
	"github.com/poselens/poselens/internal/render"
	"github.com/poselens/poselens/internal/session"
)

// CLI flags
var (
	portFlag  int
	modelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "poselens-web",
	Short: "AI photography coaching web service",
	Long: `PoseLens Web runs the photography coaching API: upload a photo and
receive structured shooting advice (light, subject pose, camera settings)
plus a generated pose-reference image URL. A follow-up endpoint refines the
pose reference through the same model conversation.

Examples:
  poselens-web
  poselens-web --port 9090
  poselens-web --model gemini-2.5-pro`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (overrides POSELENS_PORT)")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Gemini model to use (overrides GEMINI_MODEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()
	logging.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if portFlag != 0 {
		cfg.Port = portFlag
	}

	model := modelFlag
	if model == "" {
		model = chat.GetModelName()
	}

	apiKey, err := auth.GetAPIKey()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get API key")
	}

	ctx := context.Background()
	client, err := chat.NewGeminiClient(ctx, apiKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}
	if err := auth.ValidateAPIKey(ctx, client, model); err != nil {
		log.Fatal().Err(err).Msg("Invalid API key")
	}
	log.Info().Str("model", model).Msg("API key validated")

	registry := session.NewRegistry(cfg.SessionTTL)
	go sweepLoop(ctx, registry, cfg.SessionTTL)

	svc := advisor.New(client.Models, registry, render.NewBuilder(cfg.RenderBaseURL), advisor.Options{
		Model:           model,
		MaxImageWidth:   cfg.MaxImageWidth,
		JPEGQuality:     cfg.JPEGQuality,
		AnalysisTimeout: cfg.AnalysisTimeout,
		RefineTimeout:   cfg.RefineTimeout,
	})

	handler := withLogging(withCORS(newMux(svc)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		// The refinement turn can hold a request open for up to 30s.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Int("port", cfg.Port).Msg("Starting web server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// sweepLoop evicts expired conversation sessions on a fixed cadence.
func sweepLoop(ctx context.Context, registry *session.Registry, ttl time.Duration) {
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			registry.Sweep()
		}
	}
}

// --- Middleware ---

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if strings.HasPrefix(r.URL.Path, "/api/") {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("duration", time.Since(start)).
				Msg("API request")
		}
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
