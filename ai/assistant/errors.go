package assistant

import (
	"fmt"
	"strings"

	"github.com/hrygo/readle/plugin/readleapi"
)

// DescribeError turns a failed send into the text of a bot bubble.
// baseURL names the chat service in connection hints.
func DescribeError(err error, baseURL string) string {
	if err == nil {
		return "Sorry, I'm having trouble connecting right now."
	}
	msg := err.Error()

	switch {
	case readleapi.IsUnreachable(err):
		return fmt.Sprintf("Unable to connect to the chat service at %s. Please check:\n"+
			"• The backend server is running (uvicorn chatbot_api:app --host 0.0.0.0 --port 8000)\n"+
			"• Your GROQ_API_KEY is set correctly\n"+
			"• If using ngrok, make sure the tunnel URL is updated in your environment variables", baseURL)
	case strings.Contains(msg, "GROQ_API_KEY") || strings.Contains(strings.ToLower(msg), "api key"):
		return fmt.Sprintf("API Key Error: %s. Please check your GROQ_API_KEY environment variable.", msg)
	default:
		return "Connection Error: " + msg
	}
}
