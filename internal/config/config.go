package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultListenAddr    = ":8080"
	defaultGeminiModel   = "gemini-2.0-flash"
	defaultRegion        = "Hyderabad"
	defaultMaxToolRounds = 4
	defaultToolTimeout   = 10 * time.Second
)

// ParamGetter fetches one named parameter from an external parameter store.
type ParamGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Config is the complete runtime configuration of the gateway. It is loaded
// once at startup and injected into constructors; no component reads the
// environment after Load returns.
type Config struct {
	ListenAddr string

	// GeminiAPIKey may be empty: the chat handler then answers 503 for every
	// turn instead of failing the process at startup.
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	// APIBaseURL is the origin of the internal collaborator APIs the tool
	// executor calls (products, sellers, orders, wishlist, seasonal).
	APIBaseURL string

	DefaultRegion string
	MaxToolRounds int
	ToolTimeout   time.Duration
}

// Load reads configuration from the environment. The model credential is
// taken from GEMINI_API_KEY when set; otherwise, when GEMINI_API_KEY_PARAM
// names a parameter and a getter is available, it is fetched from the
// parameter store. A credential that cannot be resolved leaves the field
// empty rather than failing the load.
func Load(ctx context.Context, params ParamGetter) (Config, error) {
	cfg := Config{
		ListenAddr:    envOr("LISTEN_ADDR", defaultListenAddr),
		GeminiModel:   envOr("GEMINI_MODEL", defaultGeminiModel),
		GeminiBaseURL: strings.TrimSpace(os.Getenv("GEMINI_BASE_URL")),
		APIBaseURL:    strings.TrimRight(strings.TrimSpace(os.Getenv("API_BASE_URL")), "/"),
		DefaultRegion: envOr("DEFAULT_REGION", defaultRegion),
		MaxToolRounds: envInt("MAX_TOOL_ROUNDS", defaultMaxToolRounds),
		ToolTimeout:   time.Duration(envInt("TOOL_TIMEOUT_SECONDS", int(defaultToolTimeout/time.Second))) * time.Second,
	}
	if cfg.APIBaseURL == "" {
		return Config{}, errors.New("config: API_BASE_URL must be set")
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = defaultMaxToolRounds
	}
	if cfg.ToolTimeout <= 0 {
		cfg.ToolTimeout = defaultToolTimeout
	}

	key, err := resolveAPIKey(ctx, params)
	if err != nil {
		return Config{}, err
	}
	cfg.GeminiAPIKey = key
	return cfg, nil
}

func resolveAPIKey(ctx context.Context, params ParamGetter) (string, error) {
	if key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); key != "" {
		return key, nil
	}
	name := strings.TrimSpace(os.Getenv("GEMINI_API_KEY_PARAM"))
	if name == "" {
		return "", nil
	}
	if params == nil {
		return "", errors.New("config: GEMINI_API_KEY_PARAM set but no parameter store configured")
	}
	key, err := params.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("config: fetch model credential: %w", err)
	}
	return strings.TrimSpace(key), nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
