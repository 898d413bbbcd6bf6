package checker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// outcome is either a received status code or a transport error, never both.
type outcome struct {
	status int
	err    error
}

// Supported reports whether method can be dispatched by the engine.
func Supported(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodHead:
		return true
	}
	return false
}

func (e *Engine) dispatch(ctx context.Context, method, url string, timeout time.Duration) outcome {
	// The loader upper-cases methods but does not reject unknown ones.
	if !Supported(method) {
		return outcome{err: fmt.Errorf("unsupported method %q", method)}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var body io.Reader
	if method == http.MethodPost {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return outcome{err: fmt.Errorf("creating request: %w", err)}
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return outcome{err: err}
	}
	// The body counts towards the check: a stall past the deadline fails it.
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		resp.Body.Close()
		return outcome{err: fmt.Errorf("reading response body: %w", err)}
	}
	resp.Body.Close()

	return outcome{status: resp.StatusCode}
}
