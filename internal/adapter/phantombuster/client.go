// Package phantombuster wraps the Phantombuster automation API: launching
// agents, polling their output and normalizing the result payloads into
// canonical post records.
package phantombuster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/user/signal-service/internal/repository"
	"go.uber.org/zap"
)

const (
	baseURLV1 = "https://api.phantombuster.com/api/v1"
	baseURLV2 = "https://api.phantombuster.com/api/v2"

	// DefaultJobTimeout bounds a launch-and-wait cycle end to end.
	DefaultJobTimeout = 300 * time.Second
	// DefaultPollInterval is the pause between two status polls.
	DefaultPollInterval = 10 * time.Second
)

// AgentOutput is the transient state of one remote execution: the container
// handle, its polled status and the parsed result payload. It is never
// persisted.
type AgentOutput struct {
	ContainerID  string
	Status       string // running|finished|success|error|failed|unknown
	Output       string
	ResultObject any // JSON array, or object wrapping one
}

// AgentDetails describes a configured agent, including its saved argument.
type AgentDetails struct {
	ID         string
	Name       string
	ScriptID   string
	LaunchType string
	LastRunAt  *time.Time
	Argument   map[string]any
}

// ValidationResult reports whether an agent looks usable for profile crawls.
type ValidationResult struct {
	IsValid          bool
	HasSessionCookie bool
	MissingConfig    []string
	Warnings         []string
}

// Client talks to the Phantombuster HTTP API. It holds no state beyond the
// credential and connection pool.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURLV1  string
	baseURLV2  string
	logger     *zap.Logger
}

// NewClient creates a Phantombuster API client. The API key is mandatory.
func NewClient(apiKey string, logger *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("phantombuster api key: %w", repository.ErrNotConfigured)
	}
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURLV1:  baseURLV1,
		baseURLV2:  baseURLV2,
		logger:     logger,
	}, nil
}

func (c *Client) request(ctx context.Context, method, url string, body any) (map[string]any, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Phantombuster-Key-1", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("phantombuster request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read phantombuster response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Error("Phantombuster API error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("url", url),
			zap.ByteString("response", raw),
		)
		return nil, fmt.Errorf("phantombuster API returned status %d: %s", resp.StatusCode, raw)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode phantombuster response: %w", err)
	}
	return decoded, nil
}

// LaunchAgent submits an agent execution and returns its container ID.
func (c *Client) LaunchAgent(ctx context.Context, agentID string, argument map[string]any) (string, error) {
	body := map[string]any{"id": agentID}
	if len(argument) > 0 {
		// The API expects the argument as a JSON string, not an object.
		encoded, err := json.Marshal(argument)
		if err != nil {
			return "", fmt.Errorf("encode agent argument: %w", err)
		}
		body["argument"] = string(encoded)
	}

	resp, err := c.request(ctx, http.MethodPost, c.baseURLV2+"/agents/launch", body)
	if err != nil {
		return "", err
	}

	containerID, _ := resp["containerId"].(string)
	if containerID == "" {
		return "", fmt.Errorf("no container ID returned from launch")
	}

	c.logger.Info("Launched agent",
		zap.String("agent_id", agentID),
		zap.String("container_id", containerID),
	)
	return containerID, nil
}

// GetAgentOutput fetches the output of an agent's most recent execution.
func (c *Client) GetAgentOutput(ctx context.Context, agentID string) (*AgentOutput, error) {
	resp, err := c.request(ctx, http.MethodGet, c.baseURLV1+"/agent/"+agentID+"/output", nil)
	if err != nil {
		return nil, err
	}

	// Payload is nested under "data"; fall back to the envelope itself.
	data, ok := resp["data"].(map[string]any)
	if !ok {
		data = resp
	}

	status, _ := resp["status"].(string)
	if status == "" {
		status, _ = data["containerStatus"].(string)
	}
	if status == "" {
		status = "unknown"
	}

	// resultObject may arrive as a JSON string needing a second decode.
	result := data["resultObject"]
	if text, ok := result.(string); ok {
		var parsed any
		if err := json.Unmarshal([]byte(text), &parsed); err == nil {
			result = parsed
		}
	}

	containerID, _ := data["containerId"].(string)
	output, _ := data["output"].(string)

	return &AgentOutput{
		ContainerID:  containerID,
		Status:       status,
		Output:       output,
		ResultObject: result,
	}, nil
}

// LaunchAndWait launches an agent and polls until it terminates. A stale
// container ID in the polled output is ignored so a previous execution's
// status is never mistaken for the current one.
func (c *Client) LaunchAndWait(ctx context.Context, agentID string, argument map[string]any, timeout, pollInterval time.Duration) (*AgentOutput, error) {
	containerID, err := c.LaunchAgent(ctx, agentID, argument)
	if err != nil {
		return nil, err
	}

	for elapsed := time.Duration(0); elapsed < timeout; elapsed += pollInterval {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}

		output, err := c.GetAgentOutput(ctx, agentID)
		if err != nil {
			return nil, err
		}

		if output.ContainerID != containerID {
			c.logger.Warn("Container ID mismatch during wait",
				zap.String("expected", containerID),
				zap.String("actual", output.ContainerID),
			)
			continue
		}

		switch output.Status {
		case "finished", "success":
			c.logger.Info("Agent execution completed",
				zap.String("agent_id", agentID),
				zap.String("container_id", containerID),
			)
			return output, nil
		case "error", "failed":
			return nil, fmt.Errorf("%w: %s", repository.ErrJobFailed, output.Output)
		}

		c.logger.Debug("Waiting for agent completion",
			zap.String("agent_id", agentID),
			zap.String("status", output.Status),
		)
	}

	return nil, fmt.Errorf("%w after %s", repository.ErrJobTimeout, timeout)
}

// GetUser fetches account information for the configured API key.
func (c *Client) GetUser(ctx context.Context) (map[string]any, error) {
	return c.request(ctx, http.MethodGet, c.baseURLV1+"/user", nil)
}

// FetchAgent retrieves the configuration of a single agent.
func (c *Client) FetchAgent(ctx context.Context, agentID string) (*AgentDetails, error) {
	resp, err := c.request(ctx, http.MethodGet, c.baseURLV2+"/agents/fetch?id="+agentID, nil)
	if err != nil {
		return nil, err
	}

	argument := map[string]any{}
	switch raw := resp["argument"].(type) {
	case string:
		var parsed map[string]any
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			argument = parsed
		}
	case map[string]any:
		argument = raw
	}

	var lastRunAt *time.Time
	if ms, ok := resp["lastEndedAt"].(float64); ok && ms > 0 {
		t := time.UnixMilli(int64(ms)).UTC()
		lastRunAt = &t
	}

	details := &AgentDetails{
		ID:       agentID,
		Argument: argument,
	}
	if id, ok := resp["id"].(float64); ok {
		details.ID = fmt.Sprintf("%.0f", id)
	} else if id, ok := resp["id"].(string); ok {
		details.ID = id
	}
	details.Name, _ = resp["name"].(string)
	if scriptID, ok := resp["scriptId"].(float64); ok {
		details.ScriptID = fmt.Sprintf("%.0f", scriptID)
	} else if scriptID, ok := resp["scriptId"].(string); ok {
		details.ScriptID = scriptID
	}
	details.LaunchType, _ = resp["launchType"].(string)
	if details.LaunchType == "" {
		details.LaunchType = "manual"
	}
	details.LastRunAt = lastRunAt

	return details, nil
}

// ValidateProfileAgent checks whether an agent looks usable for profile post
// extraction and surfaces configuration warnings.
func (c *Client) ValidateProfileAgent(ctx context.Context, agentID string) *ValidationResult {
	agent, err := c.FetchAgent(ctx, agentID)
	if err != nil {
		return &ValidationResult{
			MissingConfig: []string{fmt.Sprintf("could not fetch agent: %v", err)},
		}
	}

	result := &ValidationResult{IsValid: true}

	name := strings.ToLower(agent.Name)
	if !strings.Contains(name, "activity") && !strings.Contains(name, "posts") && !strings.Contains(name, "profile") {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"agent name %q does not look like a profile post extractor; double-check the agent ID", agent.Name))
	}

	if _, ok := agent.Argument["sessionCookie"]; ok {
		result.HasSessionCookie = true
	} else {
		result.Warnings = append(result.Warnings,
			"no session cookie saved on the agent; provide one via configuration or the runner dashboard")
	}

	if agent.LastRunAt == nil {
		result.Warnings = append(result.Warnings,
			"agent has never been executed; consider a test run first")
	}

	return result
}
