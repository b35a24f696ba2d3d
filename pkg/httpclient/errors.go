package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/mmaazkhanhere/learnpath/pkg/errors"
)

// errorEnvelope matches the {"error":{"code","message"}} bodies that
// httputil.WriteError produces.
type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// turns it into an error. Structured error bodies keep their code and
// message. 5xx answers are plain errors so callers can retry them.
func ParseResponseError(resp *http.Response, target string) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", target, resp.StatusCode, err)
	}

	var env errorEnvelope
	if json.Unmarshal(raw, &env) != nil || env.Error == nil {
		return fmt.Errorf("%s returned status %d: %s", target, resp.StatusCode, raw)
	}

	msg := fmt.Sprintf("%s: %s", target, env.Error.Message)
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return apperrors.InvalidInput(msg)
	case resp.StatusCode == http.StatusUnauthorized:
		return apperrors.Unauthorized(msg)
	case resp.StatusCode == http.StatusForbidden:
		return apperrors.Forbidden(msg)
	case resp.StatusCode == http.StatusServiceUnavailable:
		return apperrors.Unavailable(msg)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%s server error (%d/%s): %s", target, resp.StatusCode, env.Error.Code, env.Error.Message)
	default:
		return &apperrors.AppError{Code: env.Error.Code, Message: msg, Status: resp.StatusCode}
	}
}
