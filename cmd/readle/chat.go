package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/readle/ai/assistant"
	"github.com/hrygo/readle/ai/cache"
	"github.com/hrygo/readle/ai/format"
	"github.com/hrygo/readle/ai/format/render"
	"github.com/hrygo/readle/ai/metrics"
	"github.com/hrygo/readle/ai/observability/logging"
)

const chatHelp = "Commands: /clear starts a new conversation, /history shows it as the service stored it, /stats shows formatter cache use, /quit leaves."

func newChatCmd(v *viper.Viper) *cobra.Command {
	var (
		messages    []string
		dumpMetrics bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the Readle assistant",
		Long: `Starts a conversation with the Readle assistant. Each stdin line is one
message; replies are split into lists and prose before printing.

` + chatHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Trigger graceful shutdown on SIGINT or SIGTERM.
			ctx, stop := signal.NotifyContext(cmd.Context(), terminationSignals...)
			defer stop()

			p, err := loadProfile(v, true)
			if err != nil {
				return err
			}
			exporter := metrics.NewPrometheusExporter(metrics.DefaultConfig())
			backend, baseURL, err := newBackend(p, exporter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			r, err := newRenderer(p, out)
			if err != nil {
				return err
			}

			if metricsAddr != "" {
				shutdown := serveMetrics(metricsAddr, exporter)
				defer shutdown()
			}
			if dumpMetrics {
				defer func() {
					text, err := exporter.ExportText()
					if err != nil {
						slog.Warn("Failed to export metrics", "error", err)
						return
					}
					fmt.Fprint(cmd.ErrOrStderr(), text)
				}()
			}

			ctx = logging.ToContext(ctx, logging.Default().WithFields(map[string]any{
				"mode":    p.Mode,
				"api_url": baseURL,
			}))

			s := &chatSession{
				conv:       assistant.NewConversation(backend, assistant.Options{BaseURL: baseURL, Metrics: exporter}),
				transcript: assistant.NewTranscript(cache.NewFormatter(format.New(format.Options{MinListItems: p.MinListItems}), 0), exporter),
				renderer:   r,
				out:        out,
				labels:     isTextual(r),
			}

			// A failed open is logged by the conversation; the first message
			// lets the service create the session instead.
			_ = s.conv.Open(ctx)
			if err := s.show(s.conv.Messages()[0]); err != nil {
				return err
			}

			if len(messages) > 0 {
				for _, m := range messages {
					if err := s.send(ctx, m); err != nil {
						return err
					}
				}
				return nil
			}
			return s.repl(ctx, cmd.InOrStdin())
		},
	}

	cmd.Flags().StringArrayVarP(&messages, "message", "m", nil, "send this message instead of reading stdin (repeatable)")
	cmd.Flags().BoolVar(&dumpMetrics, "dump-metrics", false, "print Prometheus metrics to stderr on exit")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while chatting, e.g. :9090")
	return cmd
}

type chatSession struct {
	conv       *assistant.Conversation
	transcript *assistant.Transcript
	renderer   render.Renderer
	out        io.Writer
	labels     bool
}

// repl reads one message per line until EOF, /quit or ctx is cancelled.
func (s *chatSession) repl(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		s.prompt()
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "/quit", "/exit", "q", "quit":
				return nil
			case "/help":
				fmt.Fprintln(s.out, chatHelp)
			case "/clear":
				if err := s.conv.Clear(ctx); err != nil {
					slog.Warn("Failed to start a new session", "error", err)
				}
				if err := s.show(s.conv.Messages()[0]); err != nil {
					return err
				}
			case "/history":
				for _, m := range s.conv.History(ctx) {
					if err := s.show(m); err != nil {
						return err
					}
				}
			case "/stats":
				st := s.transcript.Stats()
				fmt.Fprintf(s.out, "formatter cache: %d hits, %d misses, %d of %d entries\n", st.Hits, st.Misses, st.Entries, st.Capacity)
			default:
				if err := s.send(ctx, line); err != nil {
					return err
				}
			}
		}
	}
}

func (s *chatSession) send(ctx context.Context, text string) error {
	msg, err := s.conv.Send(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	if msg == nil {
		return nil
	}
	return s.show(*msg)
}

func (s *chatSession) show(msg assistant.Message) error {
	if s.labels {
		label := "Readle"
		if msg.Sender == assistant.SenderUser {
			label = "You"
		}
		fmt.Fprintf(s.out, "\n%s:\n", label)
	}
	return s.transcript.Render(s.out, s.renderer, msg)
}

func (s *chatSession) prompt() {
	if s.labels {
		fmt.Fprint(s.out, "\n> ")
	}
}

// isTextual reports whether r writes human-readable text, as opposed to a
// document format that labels would corrupt.
func isTextual(r render.Renderer) bool {
	switch r.(type) {
	case render.Text, *render.Terminal:
		return true
	default:
		return false
	}
}

// serveMetrics exposes /metrics on addr until the returned func is called.
func serveMetrics(addr string, m *metrics.PrometheusExporter) func() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "addr", addr, "error", err)
		}
	}()
	slog.Info("Serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := e.Shutdown(ctx); err != nil {
			slog.Warn("Failed to stop metrics server", "error", err)
		}
	}
}
