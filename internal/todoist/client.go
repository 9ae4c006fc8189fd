// Package todoist provides a typed client for the subset of the Todoist API
// that resched needs: task filtering and updates, comments, and completed-task
// lookups. Paginated endpoints are flattened into plain slices so callers
// never deal with cursors.
package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the production Todoist API endpoint.
const DefaultBaseURL = "https://api.todoist.com/api/v1"

// DefaultTimeout is the default timeout for API requests.
const DefaultTimeout = 30 * time.Second

// Client is a Todoist API client authenticated with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Used by tests to point the client
// at a local server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout overrides the HTTP request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Todoist client using the given API token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// page is the envelope Todoist wraps around paginated collections.
type page[T any] struct {
	Results    []T     `json:"results"`
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor"`
}

// elements returns whichever collection field the endpoint populated.
// Task/comment endpoints use "results"; the completed-tasks endpoint uses
// "items".
func (p *page[T]) elements() []T {
	if len(p.Results) > 0 {
		return p.Results
	}
	return p.Items
}

// FilterTasks returns all tasks matching a Todoist filter query (for example
// "overdue"), following pagination until exhausted.
func (c *Client) FilterTasks(ctx context.Context, query string) ([]Task, error) {
	params := url.Values{}
	params.Set("query", query)
	tasks, err := collectPages[Task](ctx, c, "/tasks/filter", params)
	if err != nil {
		return nil, fmt.Errorf("filter tasks %q: %w", query, err)
	}
	return tasks, nil
}

// GetTask fetches a single task by ID.
func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	var task Task
	if err := c.getJSON(ctx, "/tasks/"+id, nil, &task); err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return &task, nil
}

// UpdateTask updates the due date and/or content of a task.
func (c *Client) UpdateTask(ctx context.Context, id string, args UpdateTaskArgs) error {
	if err := c.postJSON(ctx, "/tasks/"+id, args, nil); err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	return nil
}

// GetComments returns all comments attached to a task.
func (c *Client) GetComments(ctx context.Context, taskID string) ([]Comment, error) {
	params := url.Values{}
	params.Set("task_id", taskID)
	comments, err := collectPages[Comment](ctx, c, "/comments", params)
	if err != nil {
		return nil, fmt.Errorf("get comments for task %s: %w", taskID, err)
	}
	return comments, nil
}

// AddComment creates a new comment on a task and returns it.
func (c *Client) AddComment(ctx context.Context, taskID, content string) (*Comment, error) {
	body := map[string]string{
		"task_id": taskID,
		"content": content,
	}
	var comment Comment
	if err := c.postJSON(ctx, "/comments", body, &comment); err != nil {
		return nil, fmt.Errorf("add comment to task %s: %w", taskID, err)
	}
	return &comment, nil
}

// UpdateComment replaces the content of an existing comment.
func (c *Client) UpdateComment(ctx context.Context, commentID, content string) error {
	body := map[string]string{
		"content": content,
	}
	if err := c.postJSON(ctx, "/comments/"+commentID, body, nil); err != nil {
		return fmt.Errorf("update comment %s: %w", commentID, err)
	}
	return nil
}

// CompletedByCompletionDate returns tasks completed within [since, until],
// following pagination until exhausted.
func (c *Client) CompletedByCompletionDate(ctx context.Context, since, until time.Time) ([]Task, error) {
	params := url.Values{}
	params.Set("since", since.UTC().Format(time.RFC3339))
	params.Set("until", until.UTC().Format(time.RFC3339))
	tasks, err := collectPages[Task](ctx, c, "/tasks/completed/by_completion_date", params)
	if err != nil {
		return nil, fmt.Errorf("get completed tasks: %w", err)
	}
	return tasks, nil
}

// collectPages walks a cursor-paginated endpoint and returns the flattened
// collection.
func collectPages[T any](ctx context.Context, c *Client, path string, params url.Values) ([]T, error) {
	var all []T
	cursor := ""
	for {
		pageParams := url.Values{}
		for k, v := range params {
			pageParams[k] = v
		}
		if cursor != "" {
			pageParams.Set("cursor", cursor)
		}

		var p page[T]
		if err := c.getJSON(ctx, path, pageParams, &p); err != nil {
			return nil, err
		}
		all = append(all, p.elements()...)

		if p.NextCursor == nil || *p.NextCursor == "" {
			return all, nil
		}
		cursor = *p.NextCursor
	}
}

// getJSON performs an authenticated GET request and decodes the JSON response
// into out.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	return c.do(req, out)
}

// postJSON performs an authenticated POST request with a JSON body and
// decodes the JSON response into out (if out is non-nil).
func (c *Client) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

// do executes a request, checks the response status, and decodes the body.
func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
