// Package trace submits finished workflow runs to a hosted trace service
// and queries the projects registered there.
package trace

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/prizmhq/contractor-flow/workflow"
)

const defaultTimeout = 30 * time.Second

// Client talks to the workflow-trace HTTP API.
type Client struct {
	client *resty.Client
	apiKey string
}

// NewClient creates a trace API client for the given base URL.
//
// The API key is sent as a bearer token on every request.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		client: resty.New().SetBaseURL(baseURL).SetTimeout(defaultTimeout),
		apiKey: apiKey,
	}
}

// Project is a workflow project registered with the trace service.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type listProjectsResponse struct {
	Projects []Project `json:"projects"`
}

// RunSubmission is a finished conversation reported to the trace service.
type RunSubmission struct {
	RunID      string             `json:"run_id"`
	Project    string             `json:"project"`
	Transcript []workflow.Message `json:"transcript"`
	Sentiment  string             `json:"sentiment"`
	Attempts   int                `json:"attempts"`
	Outcome    *workflow.Outcome  `json:"outcome,omitempty"`
	FinishedAt time.Time          `json:"finished_at"`
}

type submitRunResponse struct {
	TraceID string `json:"trace_id"`
}

// APIError is a non-2xx response from the trace service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("trace API returned %d: %s", e.StatusCode, e.Body)
}

// ListProjects returns all projects visible to the API key.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	res, err := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.apiKey).
		SetHeader("Accept", "application/json").
		Get("/api/v1/projects")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	if !res.IsSuccess() {
		return nil, &APIError{StatusCode: res.StatusCode(), Body: res.String()}
	}

	var parsed listProjectsResponse
	if err := json.Unmarshal(res.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse projects response: %w", err)
	}
	return parsed.Projects, nil
}

// ProjectExists reports whether a project with the given name is registered.
func (c *Client) ProjectExists(ctx context.Context, name string) (bool, error) {
	projects, err := c.ListProjects(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range projects {
		if p.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// SubmitRun reports a finished conversation and returns the trace ID
// assigned by the service.
func (c *Client) SubmitRun(ctx context.Context, sub RunSubmission) (string, error) {
	if sub.Project == "" {
		return "", fmt.Errorf("project is required")
	}
	if sub.FinishedAt.IsZero() {
		sub.FinishedAt = time.Now().UTC()
	}

	res, err := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(sub).
		Post("/api/v1/projects/" + sub.Project + "/runs")
	if err != nil {
		return "", fmt.Errorf("failed to submit run: %w", err)
	}
	if !res.IsSuccess() {
		return "", &APIError{StatusCode: res.StatusCode(), Body: res.String()}
	}

	var parsed submitRunResponse
	if err := json.Unmarshal(res.Body(), &parsed); err != nil {
		return "", fmt.Errorf("failed to parse submit response: %w", err)
	}
	return parsed.TraceID, nil
}
