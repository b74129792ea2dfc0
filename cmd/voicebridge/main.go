package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/antoniostano/voicebridge/internal/amibridge"
	"github.com/antoniostano/voicebridge/internal/backend"
	"github.com/antoniostano/voicebridge/internal/calls"
	"github.com/antoniostano/voicebridge/internal/config"
	"github.com/antoniostano/voicebridge/internal/dispatch"
	"github.com/antoniostano/voicebridge/internal/httpapi"
	"github.com/antoniostano/voicebridge/internal/observability"
	"github.com/antoniostano/voicebridge/internal/relay"
	"github.com/antoniostano/voicebridge/internal/tools"
)

func main() {
	// Best effort; a missing .env just means the environment is already set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if strings.TrimSpace(cfg.VoiceAPIKey) == "" {
		log.Fatalf("VOICE_API_KEY is not set")
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	registry, err := tools.NewRegistry(tools.Builtin(amibridge.New(cfg.AMIBridgeURL))...)
	if err != nil {
		log.Fatalf("tool registry init failed: %v", err)
	}
	log.Printf("registered tools: %s", strings.Join(registry.Names(), ", "))

	opener, err := backend.NewOpener(backend.Config{
		BaseURL:          cfg.VoiceAPIURL,
		APIKey:           cfg.VoiceAPIKey,
		SystemPrompt:     cfg.SystemPrompt,
		VoiceName:        cfg.VoiceName,
		SampleRate:       cfg.SampleRate,
		ClientBufferMS:   cfg.ClientBufferMS,
		DialTimeout:      cfg.DialTimeout,
		TemplateTimezone: cfg.TemplateTimezone,
		TemplateLanguage: cfg.TemplateLanguage,
	}, registry.Definitions())
	if err != nil {
		log.Fatalf("backend opener init failed: %v", err)
	}

	tracker := calls.NewTracker()
	dispatcher := dispatch.New(registry, metrics)
	bridge := relay.NewBridge(
		relay.OpenerFunc(func(ctx context.Context, callerID string, templateContext map[string]string) (relay.BackendChannel, error) {
			return opener.Open(ctx, callerID, templateContext)
		}),
		dispatcher,
		tracker,
		metrics,
		relay.Config{
			FlushWindow:       cfg.FlushWindow,
			BackendSampleRate: cfg.SampleRate,
			CallerSampleRate:  cfg.CallerSampleRate,
		},
	)

	api := httpapi.New(cfg, bridge, tracker, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
