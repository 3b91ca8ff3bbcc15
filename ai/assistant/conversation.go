// Package assistant holds the chat logic of the Readle assistant: a
// conversation transcript, the backends that answer it and the rendering of
// bot replies through the formatter.
package assistant

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hrygo/readle/ai/metrics"
	"github.com/hrygo/readle/ai/observability/logging"
	"github.com/hrygo/readle/internal/strutil"
)

// Greeting is the first bot bubble of every conversation.
const Greeting = "Hi! I'm your Readle AI Assistant. I'm here to help with questions about dyslexia, reading strategies, and learning support. How can I help you today?"

// ErrBusy is returned by Send while another send is in flight.
var ErrBusy = errors.New("a message is already being sent")

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one bubble of the transcript.
type Message struct {
	ID          string    `json:"id"`
	Sender      Sender    `json:"sender"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
	SourcesUsed bool      `json:"sources_used,omitempty"`
	Diagnostic  bool      `json:"diagnostic,omitempty"` // produced by DescribeError
}

// Options configures a Conversation.
type Options struct {
	// BaseURL names the chat service in connection diagnostics.
	BaseURL string
	Metrics *metrics.PrometheusExporter
}

// sessionCounter is implemented by backends that track several sessions.
type sessionCounter interface {
	ActiveSessions() int
}

// historian is implemented by backends that keep the transcript server-side.
type historian interface {
	History(ctx context.Context, sessionID string) ([]Message, error)
}

// Conversation is the state of one chat window.
type Conversation struct {
	backend Backend
	opts    Options
	now     func() time.Time

	mu        sync.Mutex
	sending   bool
	sessionID string
	messages  []Message
}

// NewConversation starts a conversation holding only the greeting.
func NewConversation(backend Backend, opts Options) *Conversation {
	c := &Conversation{
		backend: backend,
		opts:    opts,
		now:     time.Now,
	}
	c.messages = []Message{c.greeting()}
	return c
}

// Open creates a backend session. On failure the error is logged and
// returned, and the conversation stays usable without a session id.
func (c *Conversation) Open(ctx context.Context) error {
	id, err := c.backend.NewSession(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("Error creating session", "backend", c.backend.Name(), "error", err)
		return err
	}

	c.mu.Lock()
	c.sessionID = id
	c.mu.Unlock()
	c.reportSessions()
	return nil
}

// Send posts text and appends the reply. Blank text is ignored and returns
// nil. A backend failure becomes a diagnostic bot bubble rather than an
// error; only ErrBusy and context cancellation are returned.
func (c *Conversation) Send(ctx context.Context, text string) (*Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.sending = true
	c.messages = append(c.messages, c.newMessage(SenderUser, text))
	sessionID := c.sessionID
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
	}()

	log := logging.FromContext(ctx).WithFields(map[string]any{
		"backend":    c.backend.Name(),
		"session_id": sessionID,
	})

	start := time.Now()
	reply, err := c.backend.Send(ctx, sessionID, text)
	if c.opts.Metrics != nil {
		c.opts.Metrics.RecordChatRequest(c.backend.Name(), time.Since(start), err == nil)
	}
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return nil, err
		}
		log.Error("Error sending message", "message", strutil.Preview(text, 80), "error", err)
		msg := c.newMessage(SenderBot, DescribeError(err, c.opts.BaseURL))
		msg.Diagnostic = true
		c.append(msg)
		return &msg, nil
	}

	log.Debug("reply received",
		"response_type", reply.ResponseType,
		"sources_used", reply.SourcesUsed,
		"reply", strutil.Preview(reply.Content, 80))

	c.mu.Lock()
	if reply.SessionID != "" && reply.SessionID != c.sessionID {
		c.sessionID = reply.SessionID
	}
	c.mu.Unlock()

	msg := c.newMessage(SenderBot, reply.Content)
	msg.SourcesUsed = reply.SourcesUsed
	c.append(msg)
	c.reportSessions()
	return &msg, nil
}

// Clear drops the backend session, opens a fresh one and resets the
// transcript to the greeting. Session errors are logged; Clear returns an
// error only while a send is in flight.
func (c *Conversation) Clear(ctx context.Context) error {
	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return ErrBusy
	}
	old := c.sessionID
	c.sessionID = ""
	c.messages = []Message{c.greeting()}
	c.mu.Unlock()

	if old != "" {
		if err := c.backend.Clear(ctx, old); err != nil {
			logging.FromContext(ctx).Warn("Error clearing session", "session_id", old, "error", err)
		}
	}
	_ = c.Open(ctx)
	c.reportSessions()
	return nil
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// History returns the greeting followed by the turns the backend stored for
// the current session. Without a session, or for backends that keep no
// history, or when the fetch fails, it returns the local transcript.
func (c *Conversation) History(ctx context.Context) []Message {
	h, ok := c.backend.(historian)
	id := c.SessionID()
	if !ok || id == "" {
		return c.Messages()
	}
	stored, err := h.History(ctx, id)
	if err != nil {
		logging.FromContext(ctx).Warn("Error fetching history", "session_id", id, "error", err)
		return c.Messages()
	}

	c.mu.Lock()
	greeting := c.messages[0]
	c.mu.Unlock()
	return append([]Message{greeting}, stored...)
}

// SessionID returns the current backend session, "" when none is open.
func (c *Conversation) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Conversation) append(m Message) {
	c.mu.Lock()
	c.messages = append(c.messages, m)
	c.mu.Unlock()
}

func (c *Conversation) greeting() Message {
	return c.newMessage(SenderBot, Greeting)
}

func (c *Conversation) newMessage(sender Sender, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Content:   content,
		Timestamp: c.now(),
	}
}

func (c *Conversation) reportSessions() {
	if c.opts.Metrics == nil {
		return
	}
	if sc, ok := c.backend.(sessionCounter); ok {
		c.opts.Metrics.SetActiveSessions(sc.ActiveSessions())
		return
	}
	n := 0
	if c.SessionID() != "" {
		n = 1
	}
	c.opts.Metrics.SetActiveSessions(n)
}
