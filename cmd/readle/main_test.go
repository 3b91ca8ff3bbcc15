package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/readle/ai/assistant"
	"github.com/hrygo/readle/plugin/readleapi"
)

// isolateEnv hides READLE_* settings of the developer machine.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"READLE_MODE", "READLE_BACKEND", "READLE_API_BASE_URL", "READLE_CHAT_API_URL", "READLE_API_URL",
		"READLE_OUTPUT", "READLE_MIN_LIST_ITEMS", "READLE_LOG_LEVEL", "READLE_LLM_PROVIDER",
		"READLE_LLM_API_KEY", "READLE_LLM_MODEL", "READLE_LLM_BASE_URL", "GROQ_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

// run executes the CLI with stdin and returns stdout and stderr.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	isolateEnv(t)

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestFormat_Stdin(t *testing.T) {
	out, stderr, err := run(t, "Tips:\n1. Use a ruler\n2. Read aloud\n", "format", "--explain")
	require.NoError(t, err)
	assert.Equal(t, "Tips:\n  1. Use a ruler\n  2. Read aloud\n", out)
	assert.Contains(t, stderr, "strategy: numbered-list (3 fragments)")
}

func TestFormat_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reply.txt")
	require.NoError(t, os.WriteFile(path, []byte("- one\n- two\n"), 0o600))

	out, _, err := run(t, "", "format", path)
	require.NoError(t, err)
	assert.Equal(t, "  • one\n  • two\n", out)

	_, _, err = run(t, "", "format", filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorContains(t, err, "failed to read")
}

func TestFormat_JSONAndThreshold(t *testing.T) {
	out, _, err := run(t, "Only one:\n- lonely bullet", "format", "-o", "json", "--min-list-items", "3")
	require.NoError(t, err)

	var frags []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &frags))
	require.NotEmpty(t, frags)
	assert.Equal(t, "plain", frags[0]["kind"])
}

func TestFormat_OfflineIgnoresBackend(t *testing.T) {
	out, _, err := run(t, "hello", "format", "--backend", "nope", "--api-url", "ftp://x")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)

	_, _, err = run(t, "hello", "format", "-o", "pdf")
	assert.ErrorContains(t, err, "unknown output")
}

func TestQuiz_Answers(t *testing.T) {
	args := []string{"quiz"}
	for i, a := range []string{"Often", "Always", "4", "5", "often"} {
		args = append(args, "-a", fmt.Sprintf("%d=%s", i+1, a))
	}
	out, _, err := run(t, "", args...)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Significant Dyslexia Indicators\n"))
	assert.Contains(t, out, "  1. Use multi-sensory learning approaches (visual, auditory, tactile)\n")
	assert.Contains(t, out, "  6. Discuss accommodations with your child's school\n")
}

func TestQuiz_JSON(t *testing.T) {
	out, _, err := run(t, "", "quiz", "-o", "json", "-a", "10=Yes", "-a", "1=Sometimes")
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "low", res["risk_level"])
	assert.EqualValues(t, 1, res["high_concern"])
	assert.EqualValues(t, 1, res["medium_concern"])
}

func TestQuiz_Interactive(t *testing.T) {
	out, _, err := run(t, "4\n5\n\nnope\n1\n", "quiz")
	require.NoError(t, err)
	assert.Contains(t, out, "1. ")
	assert.Contains(t, out, "   5) Always\n")
	assert.Contains(t, out, `"nope" is not one of`)
	assert.Contains(t, out, "Few Dyslexia Indicators")
}

func TestQuiz_Errors(t *testing.T) {
	_, _, err := run(t, "", "quiz", "-a", "1=Maybe")
	assert.ErrorContains(t, err, "question 1")

	_, _, err = run(t, "", "quiz")
	assert.ErrorContains(t, err, "no answers")
}

func TestParseAnswers(t *testing.T) {
	got, err := parseAnswers([]string{"1=Often", " 2 = 3 "})
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "Often", 2: "3"}, got)

	for _, bad := range []string{"Often", "x=Often", "0=Often", "3="} {
		_, err := parseAnswers([]string{bad})
		assert.Error(t, err, bad)
	}
}

// fakeChatService is a minimal Readle chat API.
func fakeChatService(t *testing.T) *httptest.Server {
	t.Helper()
	e := echo.New()
	e.POST("/chat/session/new", func(c echo.Context) error {
		return c.JSON(http.StatusOK, readleapi.SessionResponse{SessionID: "sess-1", Message: "New chat session created!"})
	})
	e.POST("/chat", func(c echo.Context) error {
		var req readleapi.ChatRequest
		if err := c.Bind(&req); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, readleapi.ChatResponse{
			Response:  "Try these:\n- Use a ruler\n- Read aloud",
			SessionID: req.SessionID,
		})
	})
	e.DELETE("/chat/session/:id", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Session cleared"})
	})
	e.GET("/chat/session/:id/history", func(c echo.Context) error {
		return c.JSON(http.StatusOK, readleapi.HistoryResponse{
			SessionID: c.Param("id"),
			Messages: []readleapi.HistoryMessage{
				{Role: "user", Content: "asked on the website", Timestamp: "2026-10-16T09:30:00.123456"},
				{Role: "assistant", Content: "answered on the website", Timestamp: "2026-10-16T09:30:02.5"},
			},
			MessageCount: 2,
		})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, readleapi.HealthResponse{Status: "healthy", Service: "Readle Chat API", ActiveSessions: 2, RAGInitialized: true})
	})
	e.GET("/rag/status", func(c echo.Context) error {
		return c.JSON(http.StatusOK, readleapi.RAGStatus{
			Initialized:          true,
			VectorstoreAvailable: true,
			RelevanceThreshold:   0.3,
			DefaultWebsites:      []string{"https://dyslexiaida.org"},
			PDFFolder:            "pdfs",
			PDFFilesFound:        []string{"guide.pdf"},
			TotalPDFFiles:        1,
		})
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func TestChat_Messages(t *testing.T) {
	srv := fakeChatService(t)

	out, stderr, err := run(t, "", "chat", "--api-url", srv.URL, "-m", "tips please", "--dump-metrics")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "\nReadle:\n"+assistant.Greeting+"\n"))
	assert.Contains(t, out, "\nReadle:\nTry these:\n  • Use a ruler\n  • Read aloud\n")
	assert.Contains(t, stderr, `readle_assistant_chat_requests_total{backend="readle",status="success"} 1`)
}

func TestChat_REPL(t *testing.T) {
	srv := fakeChatService(t)

	out, _, err := run(t, "hello\n\n/stats\n/clear\n/history\n/quit\nnever sent\n", "chat", "--api-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "  • Read aloud\n")
	assert.Contains(t, out, "formatter cache: 0 hits, 2 misses, 2 of 256 entries\n")
	assert.Equal(t, 3, strings.Count(out, assistant.Greeting), "opening, /clear and /history")
	assert.NotContains(t, out, "never sent")
}

func TestChat_HistoryFromService(t *testing.T) {
	srv := fakeChatService(t)

	out, _, err := run(t, "/history\n", "chat", "--api-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "\nYou:\nasked on the website\n")
	assert.Contains(t, out, "\nReadle:\nanswered on the website\n")
}

func TestChat_ModeSetsLogLevel(t *testing.T) {
	srv := fakeChatService(t)

	_, stderr, err := run(t, "", "chat", "--api-url", srv.URL, "-m", "hi")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "reply received")

	_, stderr, err = run(t, "", "chat", "--mode", "dev", "--api-url", srv.URL, "-m", "hi")
	require.NoError(t, err)
	assert.Contains(t, stderr, "reply received")
	assert.Contains(t, stderr, "mode=dev")
	assert.Contains(t, stderr, "api_url="+srv.URL)

	_, stderr, err = run(t, "", "chat", "--mode", "dev", "--log-level", "warn", "--api-url", srv.URL, "-m", "hi")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "reply received")
}

func TestStatus_LLMFlagsBeatEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("READLE_LLM_API_KEY", "sk-test")
	t.Setenv("READLE_LLM_PROVIDER", "groq")
	t.Setenv("READLE_LLM_MODEL", "env-model")

	var stdout bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"status", "--backend", "llm", "--llm-provider", "openai", "--llm-model", "flag-model"})
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "Backend: direct LLM\nProvider: openai\nModel: flag-model\nBase URL: https://api.openai.com/v1\n", stdout.String())
}

func TestChat_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	out, _, err := run(t, "", "chat", "--api-url", base, "--timeout", "2", "-m", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "Unable to connect to the chat service at "+base+". Please check:")
	assert.Contains(t, out, "  • Your GROQ_API_KEY is set correctly\n")
}

func TestChat_LLMBackendNeedsKey(t *testing.T) {
	_, _, err := run(t, "", "chat", "--backend", "llm", "-m", "hello")
	assert.ErrorContains(t, err, "READLE_LLM_API_KEY")
}

func TestStatus(t *testing.T) {
	srv := fakeChatService(t)

	out, _, err := run(t, "", "status", "--api-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Status: healthy (Readle Chat API)\n")
	assert.Contains(t, out, "Active sessions: 2\n")
	assert.Contains(t, out, "Relevance threshold: 0.30\n")
	assert.Contains(t, out, "PDFs: 1 of 1 in pdfs\n")

	out, _, err = run(t, "", "status", "--api-url", srv.URL, "-o", "json")
	require.NoError(t, err)
	var report statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Health.ActiveSessions)
	assert.Equal(t, []string{"guide.pdf"}, report.RAG.PDFFilesFound)
}

func TestStatus_Failure(t *testing.T) {
	e := echo.New()
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"detail": "warming up"})
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	_, _, err := run(t, "", "status", "--api-url", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check failed")
}

func TestStatus_LLMBackend(t *testing.T) {
	isolateEnv(t)
	t.Setenv("READLE_LLM_API_KEY", "sk-test")

	var stdout bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"status", "--backend", "llm", "--llm-provider", "openai"})
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "Backend: direct LLM\nProvider: openai\nModel: gpt-4o-mini\nBase URL: https://api.openai.com/v1\n", stdout.String())
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "readle 0.0.0-dev (development build)\n", out)

	out, _, err = run(t, "", "version", "--full")
	require.NoError(t, err)
	assert.Equal(t, "Version=0.0.0-dev\n", out)
}
