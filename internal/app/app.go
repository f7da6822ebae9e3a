// Package app wires the gateway's components into an HTTP application.
package app

import (
	"net/http"

	"go.uber.org/zap"

	"pdfchat-gateway/internal/auth"
	"pdfchat-gateway/internal/backend"
	"pdfchat-gateway/internal/gateway"
	"pdfchat-gateway/internal/relay"
)

// App represents the application with its router and gateway state.
type App struct {
	Router  *http.ServeMux
	Gateway *gateway.ServerState
}

// NewApp creates and initializes a new instance of the App struct.
func NewApp(cfg *gateway.Config, logger *zap.Logger) *App {
	keys := auth.NewKeyValidator(
		cfg.KeyServiceURL,
		cfg.KeyServiceToken,
		cfg.KeyServiceAPIID,
		cfg.VerifyAttempts,
		cfg.VerifyBackoff,
		logger,
	)

	identity := auth.NewIdentityClient(cfg.IdentityURL, cfg.IdentitySecretKey)
	demoter := auth.NewDemoter(identity, logger)

	promptBackend := backend.NewClient(cfg.BackendURL, cfg.BackendSecret)

	completions := relay.New(relay.DefaultCompletionURL, cfg.OpenAIAPIKey, cfg.CompletionModel, logger)

	state := gateway.NewServerState(keys, demoter, promptBackend, completions, cfg, logger)

	app := &App{
		Router:  http.NewServeMux(),
		Gateway: state,
	}

	state.RegisterHandlers(app.Router)
	return app
}
