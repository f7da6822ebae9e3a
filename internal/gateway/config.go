package gateway

import (
	"os"
	"strconv"
	"sync"
	"time"
)

// Config contains configuration for the gateway including API credentials,
// collaborator endpoints, and request limits. This centralizes everything the
// gateway reads from the environment; nothing here is mutated after startup.
type Config struct {
	// ListenAddr is the address the HTTP server binds to
	ListenAddr string
	// OpenAIAPIKey is the credential for the completion API
	OpenAIAPIKey string
	// CompletionModel is the model requested from the completion API
	CompletionModel string
	// BackendURL is the base URL of the internal backend that builds prompts
	// and persists completed messages
	BackendURL string
	// BackendSecret is the shared-secret bearer credential for the backend
	BackendSecret string
	// KeyServiceURL is the base URL of the key-verification service
	KeyServiceURL string
	// KeyServiceToken is the root credential for the key-verification service
	KeyServiceToken string
	// KeyServiceAPIID is the key namespace all plan keys belong to
	KeyServiceAPIID string
	// IdentityURL is the base URL of the identity-management service
	IdentityURL string
	// IdentitySecretKey is the credential for the identity-management service
	IdentitySecretKey string
	// VerifyAttempts bounds retries against the key-verification service
	VerifyAttempts int
	// VerifyBackoff is the delay between verification retries
	VerifyBackoff time.Duration
	// ChatRequestsPerHour is the local per-user rate limit on chat requests
	ChatRequestsPerHour int
	// MaxConcurrentStreams caps in-flight completion streams per user
	MaxConcurrentStreams int
}

var (
	// config is the singleton instance of the configuration
	config *Config
	// configOnce ensures the configuration is initialized only once
	configOnce sync.Once
)

const (
	defaultKeyServiceURL = "https://api.unkey.dev"
	defaultIdentityURL   = "https://api.clerk.com"
	defaultModel         = "gpt-3.5-turbo"
)

// GetConfig returns the singleton gateway configuration.
// On first call, it initializes the configuration from environment variables.
// Collaborator base URLs fall back to their hosted defaults so that only
// credentials are mandatory in production.
func GetConfig() *Config {
	configOnce.Do(func() {
		config = &Config{
			ListenAddr:           envOr("LISTEN_ADDR", ":8080"),
			OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
			CompletionModel:      envOr("COMPLETION_MODEL", defaultModel),
			BackendURL:           os.Getenv("BACKEND_URL"),
			BackendSecret:        os.Getenv("BACKEND_SECRET"),
			KeyServiceURL:        envOr("KEY_SERVICE_URL", defaultKeyServiceURL),
			KeyServiceToken:      os.Getenv("KEY_SERVICE_TOKEN"),
			KeyServiceAPIID:      os.Getenv("KEY_SERVICE_API_ID"),
			IdentityURL:          envOr("IDENTITY_URL", defaultIdentityURL),
			IdentitySecretKey:    os.Getenv("IDENTITY_SECRET_KEY"),
			VerifyAttempts:       envIntOr("VERIFY_ATTEMPTS", 5),
			VerifyBackoff:        250 * time.Millisecond,
			ChatRequestsPerHour:  envIntOr("CHAT_REQUESTS_PER_HOUR", 50),
			MaxConcurrentStreams: envIntOr("MAX_CONCURRENT_STREAMS", 4),
		}
	})
	return config
}

// envOr reads an environment variable with a fallback default.
func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// envIntOr reads an integer environment variable with a fallback default.
func envIntOr(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
