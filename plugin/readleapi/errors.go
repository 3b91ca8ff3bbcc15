package readleapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/readle/internal/strutil"
)

// StatusError reports a non-2xx reply from the chat service.
type StatusError struct {
	Op         string // e.g. "Chat request failed"
	StatusCode int
	Status     string // reason phrase, e.g. "Internal Server Error"
	Detail     string // the service's error detail, when it sent one
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, e.Status)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func newStatusError(op string, resp *http.Response, body []byte) *StatusError {
	return &StatusError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Status:     http.StatusText(resp.StatusCode),
		Detail:     errorDetail(body),
	}
}

// errorDetail extracts {"detail": "..."} from an error body. Non-string
// details (validation errors) and non-JSON bodies are returned verbatim,
// capped at maxDetailRunes.
func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return s
		}
		body = payload.Detail
	}
	return strutil.Truncate(strings.TrimSpace(string(body)), maxDetailRunes)
}

const maxDetailRunes = 200

// IsUnreachable reports whether err means the service could not be reached
// at all, as opposed to answering with an error.
func IsUnreachable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return false
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
