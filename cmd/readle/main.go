package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/readle/ai/assistant"
	"github.com/hrygo/readle/ai/core/llm"
	"github.com/hrygo/readle/ai/format/render"
	"github.com/hrygo/readle/ai/metrics"
	"github.com/hrygo/readle/ai/observability/logging"
	"github.com/hrygo/readle/internal/profile"
	"github.com/hrygo/readle/plugin/readleapi"
)

// newRootCmd builds the command tree. Every call gets its own viper
// instance so flag state never leaks between invocations.
func newRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           "readle",
		Short:         `Readle reading-support assistant: chat with the assistant, format its replies and run the screening quiz.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Systemd units provide their environment through EnvironmentFile.
			if !isRunningAsSystemdService() {
				_ = godotenv.Load()
			}
			mode := &profile.Profile{Mode: v.GetString("mode")}
			level := v.GetString("log-level")
			if level == "" {
				level = mode.DefaultLogLevel()
			}
			logging.Setup(cmd.ErrOrStderr(), logging.ParseLevel(level), v.GetBool("log-json"))
			return nil
		},
	}

	v.SetDefault("mode", "prod")
	v.SetDefault("backend", profile.BackendReadle)
	v.SetDefault("timeout", 30)
	v.SetDefault("min-list-items", 2)

	flags := rootCmd.PersistentFlags()
	flags.String("mode", "prod", `mode of the client, can be "prod" or "dev"; dev logs at debug level`)
	flags.String("backend", profile.BackendReadle, `chat backend, "readle" (hosted chat API) or "llm" (direct OpenAI-compatible model)`)
	flags.String("api-url", "", "base URL of the Readle chat API (default $READLE_API_BASE_URL or http://localhost:8000)")
	flags.Int("timeout", 30, "chat API request timeout in seconds")
	flags.Float64("rate-limit", 0, "maximum chat API requests per second, 0 disables pacing")
	flags.Int("min-list-items", 2, "marker lines needed before a whole reply is treated as a list")
	flags.StringP("output", "o", "", "output format: text, terminal, json or html (default terminal on a tty, text otherwise)")
	flags.Int("width", 0, "terminal render width")
	flags.String("log-level", "", "log level: debug, info, warn or error (default debug in dev mode, warn in prod)")
	flags.Bool("log-json", false, "emit logs as JSON")
	flags.String("llm-provider", "", "LLM provider for --backend llm: groq, openai, deepseek, openrouter or ollama")
	flags.String("llm-model", "", "LLM model for --backend llm")
	flags.String("llm-base-url", "", "override the LLM provider base URL")

	for _, name := range []string{
		"mode", "backend", "api-url", "timeout", "rate-limit", "min-list-items", "output",
		"width", "log-level", "log-json", "llm-provider", "llm-model", "llm-base-url",
	} {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	v.SetEnvPrefix("readle")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// The chat service docs call the URL READLE_API_BASE_URL; older
	// deployments export READLE_CHAT_API_URL.
	if err := v.BindEnv("api-url", "READLE_API_BASE_URL", "READLE_CHAT_API_URL"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(
		newFormatCmd(v),
		newChatCmd(v),
		newStatusCmd(v),
		newQuizCmd(v),
		newVersionCmd(),
	)
	return rootCmd
}

// loadProfile assembles the profile from flags and environment. Offline
// commands never reach a backend, so backend settings are not checked for
// them.
func loadProfile(v *viper.Viper, online bool) (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:         v.GetString("mode"),
		Backend:      v.GetString("backend"),
		APIBaseURL:   v.GetString("api-url"),
		Output:       v.GetString("output"),
		LogLevel:     v.GetString("log-level"),
		LLMProvider:  v.GetString("llm-provider"),
		LLMModel:     v.GetString("llm-model"),
		LLMBaseURL:   v.GetString("llm-base-url"),
		Timeout:      v.GetInt("timeout"),
		RateLimit:    v.GetFloat64("rate-limit"),
		MinListItems: v.GetInt("min-list-items"),
		Width:        v.GetInt("width"),
		LogJSON:      v.GetBool("log-json"),
	}
	p.FromEnv()
	if !online {
		p.Backend = profile.BackendReadle
		p.APIBaseURL = profile.DefaultAPIBaseURL
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// newRenderer picks the renderer for p.Output. Without an explicit choice a
// terminal gets the styled renderer and anything else plain text.
func newRenderer(p *profile.Profile, w io.Writer) (render.Renderer, error) {
	name := p.Output
	if name == "" {
		name = render.NameText
		if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			name = render.NameTerminal
		}
	}
	return render.ByName(name, p.Width)
}

// newBackend connects the configured chat backend. The returned URL is the
// one named in connection diagnostics.
func newBackend(p *profile.Profile, m *metrics.PrometheusExporter) (assistant.Backend, string, error) {
	switch p.Backend {
	case profile.BackendLLM:
		svc, err := llm.NewService(&llm.Config{
			Provider: p.LLMProvider,
			Model:    p.LLMModel,
			APIKey:   p.LLMAPIKey,
			BaseURL:  p.LLMBaseURL,
			Timeout:  p.LLMTimeout,
		})
		if err != nil {
			return nil, "", err
		}
		return assistant.NewDirect(svc, assistant.DirectConfig{Metrics: m}), p.LLMBaseURL, nil
	default:
		client := readleapi.NewClient(p.APIBaseURL, readleapi.Options{
			Timeout:   time.Duration(p.Timeout) * time.Second,
			RateLimit: p.RateLimit,
		})
		return assistant.NewRemote(client), client.BaseURL(), nil
	}
}

// isRunningAsSystemdService detects if the process is running under systemd
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
