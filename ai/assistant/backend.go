package assistant

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hrygo/readle/plugin/readleapi"
)

// historyTimeLayout matches the zone-less ISO times of the chat service.
const historyTimeLayout = "2006-01-02T15:04:05.999999999"

// Reply is one bot answer from a backend.
type Reply struct {
	Content        string
	SessionID      string // the session the backend used, may differ from the one sent
	SourcesUsed    bool
	RelevanceScore *float64
	Reasoning      string
	ResponseType   string
}

// Backend produces replies for a conversation.
type Backend interface {
	// Name labels the backend in logs and metrics.
	Name() string
	// NewSession starts a server-side conversation and returns its id.
	NewSession(ctx context.Context) (string, error)
	// Send answers text within sessionID. An empty sessionID lets the backend
	// start one.
	Send(ctx context.Context, sessionID, text string) (*Reply, error)
	// Clear drops the history of sessionID.
	Clear(ctx context.Context, sessionID string) error
}

// Remote is a Backend served by the Readle chat API.
type Remote struct {
	client *readleapi.Client
}

// NewRemote wraps client as a Backend.
func NewRemote(client *readleapi.Client) *Remote {
	return &Remote{client: client}
}

func (r *Remote) Name() string { return "readle" }

// BaseURL is the chat service root, used in connection diagnostics.
func (r *Remote) BaseURL() string { return r.client.BaseURL() }

func (r *Remote) NewSession(ctx context.Context) (string, error) {
	resp, err := r.client.CreateSession(ctx)
	if err != nil {
		return "", err
	}
	return resp.SessionID, nil
}

func (r *Remote) Send(ctx context.Context, sessionID, text string) (*Reply, error) {
	resp, err := r.client.Send(ctx, text, sessionID)
	if err != nil {
		return nil, err
	}
	return &Reply{
		Content:        resp.Response,
		SessionID:      resp.SessionID,
		SourcesUsed:    resp.SourcesUsed,
		RelevanceScore: resp.RelevanceScore,
		Reasoning:      resp.Reasoning,
		ResponseType:   resp.ResponseType,
	}, nil
}

func (r *Remote) Clear(ctx context.Context, sessionID string) error {
	return r.client.ClearSession(ctx, sessionID)
}

// History returns the turns the chat service stored for sessionID.
// Unparseable timestamps are left zero.
func (r *Remote) History(ctx context.Context, sessionID string) ([]Message, error) {
	resp, err := r.client.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	msgs := make([]Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		sender := SenderBot
		if m.Role == "user" {
			sender = SenderUser
		}
		ts, _ := time.ParseInLocation(historyTimeLayout, m.Timestamp, time.Local)
		msgs = append(msgs, Message{
			ID:        uuid.NewString(),
			Sender:    sender,
			Content:   m.Content,
			Timestamp: ts,
		})
	}
	return msgs, nil
}
