// Package composio is a minimal client for the Composio tool-execution
// gateway. Each call runs one named tool on behalf of an entity (user id),
// optionally pinned to a specific connected account.
package composio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the v3 tool execution endpoint; the tool slug is
	// appended as the final path segment.
	DefaultBaseURL = "https://backend.composio.dev/api/v3/tools/execute"

	// defaultTimeout covers the gateway's own retries for slow tools.
	defaultTimeout = 60 * time.Second
)

// Instagram tool slugs.
const (
	ToolGetUserInfo          = "INSTAGRAM_GET_USER_INFO"
	ToolCreateMediaContainer = "INSTAGRAM_CREATE_MEDIA_CONTAINER"
	ToolCreatePost           = "INSTAGRAM_CREATE_POST"
	ToolGetMedia             = "INSTAGRAM_GET_IG_MEDIA"
)

// Client executes tools through the gateway.
type Client struct {
	httpClient *http.Client
	apiKey     string
	userID     string
	baseURL    string
}

// NewClient creates a gateway client. userID is the Composio entity that
// owns the connected Instagram account. An empty baseURL uses DefaultBaseURL.
func NewClient(apiKey, userID, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		apiKey:     apiKey,
		userID:     userID,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// executeRequest is the gateway request body. connected_account_id is left
// out entirely when empty.
type executeRequest struct {
	UserID             string         `json:"user_id"`
	Arguments          map[string]any `json:"arguments"`
	ConnectedAccountID string         `json:"connected_account_id,omitempty"`
}

// Response is the gateway's envelope around a tool result.
type Response struct {
	Successful bool            `json:"successful"`
	Data       json.RawMessage `json:"data,omitempty"`
	Error      json.RawMessage `json:"error,omitempty"`
}

// HasData reports whether the response carried a non-null data payload.
func (r *Response) HasData() bool {
	trimmed := bytes.TrimSpace(r.Data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// DecodeData unmarshals the data payload into v.
func (r *Response) DecodeData(v any) error {
	if !r.HasData() {
		return fmt.Errorf("response has no data")
	}
	return json.Unmarshal(r.Data, v)
}

// ErrorMessage flattens the error field. The gateway sends either a plain
// string or an object with a message field.
func (r *Response) ErrorMessage() string {
	trimmed := bytes.TrimSpace(r.Error)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &obj); err == nil {
		if obj.Message != "" {
			return obj.Message
		}
		if obj.Error != "" {
			return obj.Error
		}
	}
	return string(trimmed)
}

// StatusError is returned when the gateway answers with a non-2xx status.
type StatusError struct {
	Tool       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Composio %s failed: %d - %s", e.Tool, e.StatusCode, e.Body)
}

// Execute runs tool with args. An unsuccessful tool result is returned as a
// Response with Successful=false; only transport failures and non-2xx
// statuses are errors.
func (c *Client) Execute(ctx context.Context, tool string, args map[string]any, connectedAccountID string) (*Response, error) {
	if args == nil {
		args = map[string]any{}
	}
	payload, err := json.Marshal(executeRequest{
		UserID:             c.userID,
		Arguments:          args,
		ConnectedAccountID: strings.TrimSpace(connectedAccountID),
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", tool, err)
	}

	startTime := time.Now()
	log.Debug().Str("tool", tool).Msg("Composio tool request")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+tool, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	httpResp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		log.Debug().Str("tool", tool).Dur("duration", duration).Err(err).Msg("Composio tool response")
		return nil, fmt.Errorf("Composio %s request failed: %w", tool, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", tool, err)
	}
	log.Debug().Str("tool", tool).Int("statusCode", httpResp.StatusCode).Dur("duration", duration).Msg("Composio tool response")

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &StatusError{Tool: tool, StatusCode: httpResp.StatusCode, Body: truncate(string(body), 500)}
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse %s response: %w (body: %s)", tool, err, truncate(string(body), 200))
	}
	if !resp.Successful {
		log.Warn().Str("tool", tool).Str("error", resp.ErrorMessage()).Msg("Composio tool unsuccessful")
	}
	return &resp, nil
}

// truncate returns the first n runes of s, appending "..." if truncated.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
