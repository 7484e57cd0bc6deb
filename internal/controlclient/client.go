package controlclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"discpipe/internal/oversight"
	"discpipe/internal/queue"
)

// ErrNotFound mirrors control.ErrNotFound for callers that only have the
// HTTP response's status code, not the server-side sentinel.
var ErrNotFound = fmt.Errorf("not found")

// ErrInvalidState mirrors control.ErrInvalidState.
var ErrInvalidState = fmt.Errorf("invalid state")

// Client talks to a running daemon's control surface over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a Client against baseURL, e.g. "http://127.0.0.1:7487".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type detailResponse struct {
	Detail string `json:"detail"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader *strings.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = strings.NewReader(string(encoded))
	} else {
		reader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("control request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var detail detailResponse
		_ = json.NewDecoder(resp.Body).Decode(&detail)
		switch resp.StatusCode {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusBadRequest:
			return ErrInvalidState
		default:
			if detail.Detail != "" {
				return fmt.Errorf("control surface: %s", detail.Detail)
			}
			return fmt.Errorf("control surface: unexpected status %d", resp.StatusCode)
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ListJobs fetches jobs, optionally filtered to a single status.
func (c *Client) ListJobs(ctx context.Context, status queue.Status, limit int, includeArchived bool) ([]*queue.Job, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if includeArchived {
		q.Set("include_archived", "true")
	}
	var out struct {
		Jobs []*queue.Job `json:"jobs"`
	}
	if err := c.do(ctx, http.MethodGet, "/control/jobs?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// GetJob fetches a single job by id.
func (c *Client) GetJob(ctx context.Context, id int64) (*queue.Job, error) {
	var out struct {
		Job *queue.Job `json:"job"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/control/jobs/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return out.Job, nil
}

type jobActionResponse struct {
	Success bool         `json:"success"`
	JobID   int64        `json:"job_id"`
	Status  queue.Status `json:"status"`
}

func (c *Client) jobAction(ctx context.Context, path string, body any) (queue.Status, error) {
	var out jobActionResponse
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// Approve transitions a REVIEW job to MOVING.
func (c *Client) Approve(ctx context.Context, id int64) (queue.Status, error) {
	return c.jobAction(ctx, fmt.Sprintf("/control/jobs/%d/approve", id), nil)
}

// Identify overrides identification on a REVIEW job and transitions it to MOVING.
func (c *Client) Identify(ctx context.Context, id int64, title string, year int) (queue.Status, error) {
	return c.jobAction(ctx, fmt.Sprintf("/control/jobs/%d/identify", id), map[string]any{"title": title, "year": year})
}

// Skip transitions a REVIEW job to FAILED.
func (c *Client) Skip(ctx context.Context, id int64) (queue.Status, error) {
	return c.jobAction(ctx, fmt.Sprintf("/control/jobs/%d/skip", id), nil)
}

// PreIdentify writes a human-asserted identification onto a job before review.
func (c *Client) PreIdentify(ctx context.Context, id int64, title string, year int) (queue.Status, error) {
	return c.jobAction(ctx, fmt.Sprintf("/control/jobs/%d/pre_identify", id), map[string]any{"title": title, "year": year})
}

// Archive transitions a terminal job to ARCHIVED.
func (c *Client) Archive(ctx context.Context, id int64) (queue.Status, error) {
	return c.jobAction(ctx, fmt.Sprintf("/control/jobs/%d/archive", id), nil)
}

// Collection fetches the full collection list.
func (c *Client) Collection(ctx context.Context) ([]*queue.CollectionItem, error) {
	var out struct {
		Items []*queue.CollectionItem `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/control/collection", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Health fetches the aggregate status-count summary.
func (c *Client) Health(ctx context.Context) (queue.HealthSummary, error) {
	var out struct {
		Health queue.HealthSummary `json:"health"`
	}
	if err := c.do(ctx, http.MethodGet, "/control/health", nil, &out); err != nil {
		return queue.HealthSummary{}, err
	}
	return out.Health, nil
}

// OversightCheck fetches the current consistency issues.
func (c *Client) OversightCheck(ctx context.Context) ([]oversight.Issue, error) {
	var out struct {
		Issues []oversight.Issue `json:"issues"`
	}
	if err := c.do(ctx, http.MethodGet, "/control/oversight", nil, &out); err != nil {
		return nil, err
	}
	return out.Issues, nil
}

// OversightFixEncoding repairs duplicate ENCODING jobs and returns the count repaired.
func (c *Client) OversightFixEncoding(ctx context.Context) (int, error) {
	var out struct {
		Repaired int `json:"repaired"`
	}
	if err := c.do(ctx, http.MethodPost, "/control/oversight/fix_encoding", nil, &out); err != nil {
		return 0, err
	}
	return out.Repaired, nil
}

// OversightHistory fetches the most recent oversight repair actions.
func (c *Client) OversightHistory(ctx context.Context, limit int) ([]*queue.RepairEvent, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Events []*queue.RepairEvent `json:"events"`
	}
	if err := c.do(ctx, http.MethodGet, "/control/oversight/history?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

// ToggleActiveMode flips active mode and returns the new value.
func (c *Client) ToggleActiveMode(ctx context.Context) (bool, error) {
	var out struct {
		Active bool `json:"active"`
	}
	if err := c.do(ctx, http.MethodPost, "/control/active_mode/toggle", nil, &out); err != nil {
		return false, err
	}
	return out.Active, nil
}

// SetActiveMode pins active mode to the given value.
func (c *Client) SetActiveMode(ctx context.Context, active bool) error {
	return c.do(ctx, http.MethodPost, "/control/active_mode", map[string]any{"active": active}, nil)
}

// Wanted fetches the full wanted list.
func (c *Client) Wanted(ctx context.Context) ([]*queue.WantedItem, error) {
	var out struct {
		Items []*queue.WantedItem `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/control/wanted", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// AddWanted records a new wanted-list entry and returns its id.
func (c *Client) AddWanted(ctx context.Context, title string, year *int, contentType queue.ContentType, catalogID *int64, posterRef, notes string) (int64, error) {
	var out struct {
		ID int64 `json:"id"`
	}
	body := map[string]any{
		"title":        title,
		"year":         year,
		"content_type": contentType,
		"catalog_id":   catalogID,
		"poster_ref":   posterRef,
		"notes":        notes,
	}
	if err := c.do(ctx, http.MethodPost, "/control/wanted", body, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// RemoveWanted deletes a wanted-list entry by id.
func (c *Client) RemoveWanted(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/control/wanted/%d", id), nil, nil)
}
