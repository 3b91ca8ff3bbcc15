package profile

import (
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Backend names.
const (
	BackendReadle = "readle" // Readle chat API over HTTP
	BackendLLM    = "llm"    // direct OpenAI-compatible completion
)

// DefaultAPIBaseURL is used when neither READLE_API_BASE_URL nor
// READLE_CHAT_API_URL is set.
const DefaultAPIBaseURL = "http://localhost:8000"

// Profile is the configuration shared by the readle commands.
type Profile struct {
	Mode       string // dev | prod
	Backend    string // readle | llm
	APIBaseURL string
	Output     string // text | terminal | json | html
	LogLevel   string

	// Direct LLM configuration (OpenAI-compatible protocol)
	LLMProvider string // groq, openai, deepseek, openrouter, ollama
	LLMAPIKey   string
	LLMBaseURL  string
	LLMModel    string
	LLMTimeout  int // seconds

	Timeout      int     // chat API request timeout in seconds
	RateLimit    float64 // chat API requests per second, 0 disables pacing
	MinListItems int     // whole-message list threshold for the formatter
	Width        int     // terminal render width
	LogJSON      bool
}

// Provider default configurations for the direct LLM backend.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"groq": {
		BaseURL: "https://api.groq.com/openai/v1",
		Model:   "meta-llama/llama-4-scout-17b-16e-instruct",
	},
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "meta-llama/llama-3.1-8b-instruct",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// DefaultLogLevel is the log level used when none is configured.
func (p *Profile) DefaultLogLevel() string {
	if p.IsDev() {
		return "debug"
	}
	return "warn"
}

// IsLLMConfigured reports whether the direct LLM backend has credentials.
// Ollama runs locally and needs none.
func (p *Profile) IsLLMConfigured() bool {
	return p.LLMAPIKey != "" || p.LLMProvider == "ollama"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv fills fields that flags left empty from READLE_* environment
// variables.
func (p *Profile) FromEnv() {
	if p.APIBaseURL == "" {
		p.APIBaseURL = ResolveAPIBaseURL()
	}

	if p.LLMProvider == "" {
		p.LLMProvider = getEnvOrDefault("READLE_LLM_PROVIDER", "groq")
	}
	// GROQ_API_KEY is what the hosted chat service is configured with, so
	// accept it as a fallback for direct mode.
	if p.LLMAPIKey == "" {
		p.LLMAPIKey = getEnvOrDefault("READLE_LLM_API_KEY", os.Getenv("GROQ_API_KEY"))
	}
	if p.LLMBaseURL == "" {
		p.LLMBaseURL = os.Getenv("READLE_LLM_BASE_URL")
	}
	if p.LLMModel == "" {
		p.LLMModel = os.Getenv("READLE_LLM_MODEL")
	}
	if p.LLMTimeout <= 0 {
		p.LLMTimeout = getEnvOrDefaultInt("READLE_LLM_TIMEOUT_SECONDS", 60)
	}

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
		slog.Warn("Unknown LLM provider, using default: groq", "provider", p.LLMProvider)
		p.LLMProvider = "groq"
	}
	defaults := llmProviderDefaults[p.LLMProvider]
	if p.LLMBaseURL == "" {
		p.LLMBaseURL = defaults.BaseURL
	}
	if p.LLMModel == "" {
		p.LLMModel = defaults.Model
	}
}

// ResolveAPIBaseURL returns the chat API base URL from the environment:
// READLE_API_BASE_URL, then READLE_CHAT_API_URL, then DefaultAPIBaseURL.
// A trailing slash is removed.
func ResolveAPIBaseURL() string {
	u := getEnvOrDefault("READLE_API_BASE_URL", getEnvOrDefault("READLE_CHAT_API_URL", DefaultAPIBaseURL))
	return strings.TrimRight(u, "/")
}

func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	p.Backend = strings.ToLower(strings.TrimSpace(p.Backend))
	if p.Backend == "" {
		p.Backend = BackendReadle
	}

	switch p.Backend {
	case BackendReadle:
		p.APIBaseURL = strings.TrimRight(strings.TrimSpace(p.APIBaseURL), "/")
		if p.APIBaseURL == "" {
			p.APIBaseURL = DefaultAPIBaseURL
		}
		u, err := url.Parse(p.APIBaseURL)
		if err != nil {
			return errors.Wrapf(err, "invalid chat API base URL %q", p.APIBaseURL)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return errors.Errorf("chat API base URL %q must use http or https", p.APIBaseURL)
		}
	case BackendLLM:
		if !p.IsLLMConfigured() {
			return errors.Errorf("backend %q needs READLE_LLM_API_KEY (or GROQ_API_KEY) for provider %s", p.Backend, p.LLMProvider)
		}
	default:
		return errors.Errorf("unknown backend %q (want %s or %s)", p.Backend, BackendReadle, BackendLLM)
	}

	if p.Timeout <= 0 {
		p.Timeout = 30
	}
	if p.LLMTimeout <= 0 {
		p.LLMTimeout = 60
	}
	if p.RateLimit < 0 {
		p.RateLimit = 0
	}
	if p.MinListItems < 1 {
		p.MinListItems = 2
	}
	return nil
}
