package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
)

// Config holds application configuration values loaded from environment variables.
// It is read once at startup and shared read-only by every request.
type Config struct {
	DatabaseURL     string
	HTTPPort        string
	Provider        string // "openai" or "anthropic"
	ProviderAPIKey  string // Credential for the selected provider; may be empty
	ProviderBaseURL string // Optional override, mostly for proxies and tests
	Model           string
	ProviderTimeout time.Duration
	Debug           bool     // Expose raw error detail in error responses
	AllowedOrigins  []string // CORS origins, "*" allows all
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
//
// A missing provider credential is not fatal: the process must stay up for
// /health and /diagnostics/provider, so /ask checks it per request instead.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file (useful for development)
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: Could not load .env file. Using environment variables only.", err)
	}

	dbURL := getEnv("DATABASE_URL", "") // No default, should fail if not set
	if dbURL == "" {
		log.Fatal("FATAL: DATABASE_URL environment variable is not set.")
	}

	provider := strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", ProviderOpenAI)))
	var apiKey, defaultModel string
	switch provider {
	case ProviderAnthropic:
		apiKey = getSecretEnv("ANTHROPIC_API_KEY")
		defaultModel = DefaultAnthropicModel
	case ProviderOpenAI:
		apiKey = getSecretEnv("OPENAI_API_KEY")
		defaultModel = DefaultOpenAIModel
	default:
		log.Fatalf("FATAL: Unsupported LLM_PROVIDER %q (expected %q or %q)", provider, ProviderOpenAI, ProviderAnthropic)
	}

	timeoutStr := getEnv("PROVIDER_TIMEOUT_SECONDS", "60")
	timeoutSecs, err := strconv.Atoi(timeoutStr)
	if err != nil || timeoutSecs <= 0 {
		log.Printf("Warning: Invalid PROVIDER_TIMEOUT_SECONDS '%s', using default 60s. Error: %v", timeoutStr, err)
		timeoutSecs = 60
	}

	cfg := &Config{
		DatabaseURL:     dbURL,
		HTTPPort:        getEnv("PORT", "8000"),
		Provider:        provider,
		ProviderAPIKey:  apiKey,
		ProviderBaseURL: getEnv("PROVIDER_BASE_URL", ""),
		Model:           getEnv("LLM_MODEL", defaultModel),
		ProviderTimeout: time.Duration(timeoutSecs) * time.Second,
		Debug:           parseBool(getEnv("DEBUG", "false")),
		AllowedOrigins:  parseOrigins(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	log.Printf("Loaded config: Port=%s, DB_URL=***, Provider=%s, Model=%s, APIKeyLoaded=%t, Timeout=%s, Debug=%t, Origins=%v",
		cfg.HTTPPort, cfg.Provider, cfg.Model, cfg.ProviderAPIKey != "", cfg.ProviderTimeout, cfg.Debug, cfg.AllowedOrigins)

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Env variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getSecretEnv is getEnv without echoing the value.
func getSecretEnv(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		log.Printf("WARN: %s is not set; /ask will fail until it is configured.", key)
	}
	return value
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return b
}

func parseOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
