package readleapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService mimics the Readle chat API closely enough for client tests.
type fakeService struct {
	mu       sync.Mutex
	sessions map[string][]HistoryMessage
	next     int
	chats    []ChatRequest
}

func newFakeService(t *testing.T) (*fakeService, *httptest.Server) {
	t.Helper()
	f := &fakeService{sessions: map[string][]HistoryMessage{}}

	e := echo.New()
	e.POST("/chat/session/new", func(c echo.Context) error {
		id := f.newSession()
		return c.JSON(http.StatusOK, SessionResponse{SessionID: id, Message: "New chat session created!"})
	})
	e.POST("/chat", func(c echo.Context) error {
		var req ChatRequest
		if err := c.Bind(&req); err != nil {
			return err
		}
		if req.Message == "boom" {
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"detail": "Error generating response: GROQ_API_KEY environment variable not set",
			})
		}
		f.mu.Lock()
		f.chats = append(f.chats, req)
		f.mu.Unlock()
		id := req.SessionID
		if id == "" {
			id = f.newSession()
		}
		f.append(id, "user", req.Message)
		reply := "1. Use a ruler\n2. Read aloud"
		f.append(id, "assistant", reply)
		score := 0.72
		return c.JSON(http.StatusOK, ChatResponse{
			Response:       reply,
			SessionID:      id,
			SourcesUsed:    true,
			RelevanceScore: &score,
			Reasoning:      "Using knowledge base (relevance: 0.72)",
			ResponseType:   "detailed",
		})
	})
	e.GET("/chat/session/:id/history", func(c echo.Context) error {
		id := c.Param("id")
		f.mu.Lock()
		msgs := append([]HistoryMessage{}, f.sessions[id]...)
		f.mu.Unlock()
		return c.JSON(http.StatusOK, HistoryResponse{SessionID: id, Messages: msgs, MessageCount: len(msgs)})
	})
	e.DELETE("/chat/session/:id", func(c echo.Context) error {
		id := c.Param("id")
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.sessions[id]; !ok {
			return c.JSON(http.StatusNotFound, map[string]string{"detail": "Session not found"})
		}
		delete(f.sessions, id)
		return c.JSON(http.StatusOK, map[string]string{"message": "Session " + id + " cleared successfully"})
	})
	e.GET("/health", func(c echo.Context) error {
		f.mu.Lock()
		n := len(f.sessions)
		f.mu.Unlock()
		return c.JSON(http.StatusOK, HealthResponse{
			Status:             "healthy",
			Service:            "Readle Chatbot API",
			ActiveSessions:     n,
			RAGInitialized:     true,
			RelevanceThreshold: 0.3,
			RAGDisabled:        "false",
			IncludePDFs:        "true",
			ChromaDir:          "./chroma_db",
		})
	})
	e.GET("/rag/status", func(c echo.Context) error {
		return c.JSON(http.StatusOK, RAGStatus{Initialized: true, TotalPDFFiles: 2, PDFFilesFound: []string{"a.pdf", "b.pdf"}})
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeService) newSession() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	id := "session-" + string(rune('0'+f.next))
	f.sessions[id] = nil
	return id
}

func (f *fakeService) append(id, role, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[id] = append(f.sessions[id], HistoryMessage{Role: role, Content: content, Timestamp: "2026-10-16T09:30:00.123456"})
}

func TestClient_SessionLifecycle(t *testing.T) {
	_, srv := newFakeService(t)
	c := NewClient(srv.URL+"/", Options{})
	ctx := context.Background()

	assert.Equal(t, srv.URL, c.BaseURL())

	sess, err := c.CreateSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "session-1", sess.SessionID)

	resp, err := c.Send(ctx, "How can I help my child read?", sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "session-1", resp.SessionID)
	assert.Equal(t, "1. Use a ruler\n2. Read aloud", resp.Response)
	assert.True(t, resp.SourcesUsed)
	require.NotNil(t, resp.RelevanceScore)
	assert.InDelta(t, 0.72, *resp.RelevanceScore, 1e-9)
	assert.Equal(t, "detailed", resp.ResponseType)

	hist, err := c.History(ctx, sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, hist.MessageCount)
	require.Len(t, hist.Messages, 2)
	assert.Equal(t, "user", hist.Messages[0].Role)
	assert.Equal(t, "2026-10-16T09:30:00.123456", hist.Messages[1].Timestamp)

	require.NoError(t, c.ClearSession(ctx, sess.SessionID))

	err = c.ClearSession(ctx, sess.SessionID)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "Failed to clear session: 404 Not Found: Session not found", se.Error())
}

func TestClient_SendWithoutSession(t *testing.T) {
	f, srv := newFakeService(t)
	c := NewClient(srv.URL, Options{})

	resp, err := c.Send(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionID)

	require.Len(t, f.chats, 1)
	assert.Empty(t, f.chats[0].SessionID)
}

func TestClient_StatusError(t *testing.T) {
	_, srv := newFakeService(t)
	c := NewClient(srv.URL, Options{})

	_, err := c.Send(context.Background(), "boom", "")
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Chat request failed", se.Op)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Contains(t, se.Error(), "500 Internal Server Error")
	assert.Contains(t, se.Error(), "GROQ_API_KEY")
	assert.False(t, IsUnreachable(err))
}

func TestClient_HealthAndRAG(t *testing.T) {
	_, srv := newFakeService(t)
	c := NewClient(srv.URL, Options{Timeout: 5 * time.Second})
	ctx := context.Background()

	_, err := c.CreateSession(ctx)
	require.NoError(t, err)

	h, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, 1, h.ActiveSessions)
	assert.True(t, h.RAGInitialized)
	assert.Equal(t, "false", h.RAGDisabled)

	rs, err := c.RAGStatus(ctx)
	require.NoError(t, err)
	assert.True(t, rs.Initialized)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, rs.PDFFilesFound)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, Options{Timeout: 2 * time.Second})
	_, err := c.Health(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnreachable(err))
	assert.Contains(t, err.Error(), "Health check failed")
}

func TestClient_RateLimit(t *testing.T) {
	_, srv := newFakeService(t)
	c := NewClient(srv.URL, Options{RateLimit: 20})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.Health(ctx)
		require.NoError(t, err)
	}
	// Burst of one: the second and third calls wait ~50ms each.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err := c.Health(cancelled)
	require.Error(t, err)
	assert.False(t, IsUnreachable(err))
}

func TestErrorDetail(t *testing.T) {
	assert.Equal(t, "Session not found", errorDetail([]byte(`{"detail":"Session not found"}`)))
	assert.Equal(t, `[{"loc":["body","message"]}]`, errorDetail([]byte(`{"detail":[{"loc":["body","message"]}]}`)))
	assert.Equal(t, "Bad Gateway", errorDetail([]byte("  Bad Gateway \n")))
	assert.Empty(t, errorDetail(nil))

	long := errorDetail([]byte(strings.Repeat("é", 300)))
	assert.Equal(t, strings.Repeat("é", 200)+"...", long)
}
