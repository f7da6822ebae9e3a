// The gateway sits between the chat frontend and the completion API. It
// authorizes callers by plan key, asks the internal backend to assemble the
// prompt, streams the completion back to the caller, and persists the full
// reply once the stream drains.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pdfchat-gateway/internal/app"
	"pdfchat-gateway/internal/gateway"
)

func main() {
	// Create a context that will be canceled on program termination
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Could not initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg := gateway.GetConfig()

	if cfg.OpenAIAPIKey == "" {
		logger.Fatal("OPENAI_API_KEY is required")
	}
	if cfg.BackendURL == "" || cfg.BackendSecret == "" {
		logger.Fatal("BACKEND_URL and BACKEND_SECRET are required")
	}
	if cfg.KeyServiceToken == "" || cfg.KeyServiceAPIID == "" {
		logger.Fatal("KEY_SERVICE_TOKEN and KEY_SERVICE_API_ID are required")
	}
	if cfg.IdentitySecretKey == "" {
		logger.Fatal("IDENTITY_SECRET_KEY is required")
	}

	a := app.NewApp(cfg, logger)

	// Set up signal handling for graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: a.Router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("starting gateway", zap.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	// In-flight completion streams get a grace period to finish
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", zap.Error(err))
	} else {
		logger.Info("server gracefully stopped")
	}
}
