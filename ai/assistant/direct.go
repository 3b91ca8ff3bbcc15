package assistant

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/readle/ai/core/llm"
	"github.com/hrygo/readle/ai/metrics"
)

// Direct session limits.
const (
	DefaultMaxTurns       = 10             // user+assistant pairs kept per session
	DefaultPromptMessages = 8              // history messages sent with each prompt
	DefaultSessionTTL     = 24 * time.Hour // idle time before a session is dropped
)

// ErrSessionNotFound is returned when clearing an unknown direct session.
var ErrSessionNotFound = errors.New("session not found")

// DirectConfig configures a Direct backend.
type DirectConfig struct {
	MaxTurns       int
	PromptMessages int
	SessionTTL     time.Duration
	Metrics        *metrics.PrometheusExporter
}

// Direct answers by calling an OpenAI-compatible model itself, keeping a
// short rolling history per session in memory.
type Direct struct {
	llm     llm.Service
	cfg     DirectConfig
	now     func() time.Time
	mu      sync.Mutex
	history map[string]*directSession
}

type directSession struct {
	messages     []llm.Message
	lastActivity time.Time
}

// NewDirect creates a Direct backend on top of svc.
func NewDirect(svc llm.Service, cfg DirectConfig) *Direct {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.PromptMessages <= 0 {
		cfg.PromptMessages = DefaultPromptMessages
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	return &Direct{
		llm:     svc,
		cfg:     cfg,
		now:     time.Now,
		history: make(map[string]*directSession),
	}
}

func (d *Direct) Name() string { return "llm" }

func (d *Direct) NewSession(_ context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := shortuuid.New()
	d.history[id] = &directSession{lastActivity: d.now()}
	return id, nil
}

func (d *Direct) Send(ctx context.Context, sessionID, text string) (*Reply, error) {
	if sessionID == "" {
		var err error
		if sessionID, err = d.NewSession(ctx); err != nil {
			return nil, err
		}
	}

	analysis := AnalyzeQuestion(text)
	history := d.recent(sessionID)
	msgs := llm.FormatMessages(SystemPrompt(analysis), text, history)

	content, stats, err := d.llm.Chat(ctx, msgs, llm.CallOptions{MaxTokens: analysis.MaxTokens})
	if err != nil {
		return nil, errors.Wrap(err, "Error generating response")
	}
	content = CleanReply(content)

	if d.cfg.Metrics != nil && stats != nil {
		d.cfg.Metrics.RecordLLMTokens(d.llm.Model(), "prompt", stats.PromptTokens)
		d.cfg.Metrics.RecordLLMTokens(d.llm.Model(), "completion", stats.CompletionTokens)
	}
	slog.Debug("direct reply",
		"session_id", sessionID,
		"response_type", analysis.Type,
		"max_tokens", analysis.MaxTokens,
		"history", len(history),
	)

	d.remember(sessionID, llm.UserMessage(text), llm.AssistantMessage(content))
	return &Reply{
		Content:      content,
		SessionID:    sessionID,
		Reasoning:    "Using general knowledge",
		ResponseType: analysis.Type,
	}, nil
}

func (d *Direct) Clear(_ context.Context, sessionID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.history[sessionID]; !ok {
		return errors.Wrapf(ErrSessionNotFound, "Failed to clear session %s", sessionID)
	}
	delete(d.history, sessionID)
	return nil
}

// ActiveSessions returns the number of live sessions after dropping
// expired ones.
func (d *Direct) ActiveSessions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.expireLocked()
	return len(d.history)
}

// recent returns the newest history messages to send with a prompt. An
// expired or unknown session yields none and is reset.
func (d *Direct) recent(sessionID string) []llm.Message {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.history[sessionID]
	if !ok || d.now().Sub(s.lastActivity) > d.cfg.SessionTTL {
		d.history[sessionID] = &directSession{lastActivity: d.now()}
		return nil
	}
	msgs := s.messages
	if len(msgs) > d.cfg.PromptMessages {
		msgs = msgs[len(msgs)-d.cfg.PromptMessages:]
	}
	return append([]llm.Message(nil), msgs...)
}

func (d *Direct) remember(sessionID string, msgs ...llm.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.history[sessionID]
	if !ok {
		s = &directSession{}
		d.history[sessionID] = s
	}
	s.messages = append(s.messages, msgs...)
	if limit := d.cfg.MaxTurns * 2; len(s.messages) > limit {
		s.messages = append([]llm.Message(nil), s.messages[len(s.messages)-limit:]...)
	}
	s.lastActivity = d.now()
}

func (d *Direct) expireLocked() {
	now := d.now()
	for id, s := range d.history {
		if now.Sub(s.lastActivity) > d.cfg.SessionTTL {
			delete(d.history, id)
		}
	}
}
