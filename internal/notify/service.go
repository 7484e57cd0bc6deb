// Package notify implements the notification boundary: one operation,
// notify(title, message, priority, url), posted to ntfy when configured.
// Missing configuration is not an error - the call simply returns a failed
// Result, matching the notifier's "silently dropped after logging" policy.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"discpipe/internal/config"
	"discpipe/internal/services"
)

// Result reports the outcome of a notify call.
type Result struct {
	Success bool
	ID      string
}

// Notifier is the boundary pipeline components depend on.
type Notifier interface {
	Notify(ctx context.Context, title, message string, priority int, url string) Result
}

// New builds a Notifier backed by ntfy when both a user key and app token
// are configured; otherwise it returns a notifier that always reports a
// failed Result without making a network call.
func New(cfg *config.Config, opts ...Option) Notifier {
	if cfg == nil || !cfg.NotifyEnabled() {
		return noopNotifier{}
	}
	timeout := time.Duration(cfg.NotifyTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	n := &ntfyNotifier{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.NotifyBaseURL), "/"),
		topic:   strings.TrimSpace(cfg.NotifyUserKey),
		token:   strings.TrimSpace(cfg.NotifyAppToken),
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Option configures an ntfyNotifier (tests primarily).
type Option func(*ntfyNotifier)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(n *ntfyNotifier) {
		if client != nil {
			n.client = client
		}
	}
}

type ntfyNotifier struct {
	baseURL string
	topic   string
	token   string
	client  *http.Client
}

// priorityHeader maps the spec's [-2,2] scale onto ntfy's 1-5 scale (3 is
// the ntfy default / "unset" value, so 0 maps there).
func priorityHeader(priority int) string {
	switch {
	case priority <= -2:
		return "1"
	case priority == -1:
		return "2"
	case priority == 0:
		return "3"
	case priority == 1:
		return "4"
	default:
		return "5"
	}
}

func (n *ntfyNotifier) Notify(ctx context.Context, title, message string, priority int, url string) Result {
	endpoint := n.baseURL + "/" + n.topic
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(message))
	if err != nil {
		return Result{Success: false}
	}
	req.Header.Set("Authorization", "Bearer "+n.token)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if title != "" {
		req.Header.Set("Title", title)
	}
	req.Header.Set("Priority", priorityHeader(priority))
	if url != "" {
		req.Header.Set("Click", url)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return Result{Success: false}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))
	if resp.StatusCode >= 300 {
		return Result{Success: false}
	}
	return Result{Success: true, ID: resp.Header.Get("X-Request-Id")}
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, string, string, int, string) Result {
	return Result{Success: false}
}

// asUnavailableError classifies a failed Result for structured logging; the
// caller logs it at warning severity and moves on, never failing a job.
func asUnavailableError(title string) error {
	return &services.NotifierUnavailableError{Details: fmt.Sprintf("notification %q could not be delivered", title)}
}

// Unavailable returns the error a caller should log (but not propagate)
// when a Notify call reports a failed Result.
func Unavailable(title string) error {
	return asUnavailableError(title)
}
