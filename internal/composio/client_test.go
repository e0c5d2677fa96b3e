package composio

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

// newTestClient creates a Client pointing at a test HTTP server.
func newTestClient(server *httptest.Server) *Client {
	return &Client{
		httpClient: server.Client(),
		apiKey:     "test-key",
		userID:     "entity-1",
		baseURL:    server.URL,
	}
}

func TestExecuteSendsToolRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/"+ToolCreatePost {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("unexpected x-api-key: %q", r.Header.Get("x-api-key"))
		}

		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["user_id"] != "entity-1" {
			t.Errorf("unexpected user_id: %v", body["user_id"])
		}
		if body["connected_account_id"] != "ca_123" {
			t.Errorf("unexpected connected_account_id: %v", body["connected_account_id"])
		}
		args := body["arguments"].(map[string]any)
		if args["creation_id"] != "c-1" {
			t.Errorf("unexpected arguments: %v", args)
		}

		io.WriteString(w, `{"successful":true,"data":{"id":"post-1"}}`)
	}))
	defer server.Close()

	client := newTestClient(server)
	resp, err := client.Execute(context.Background(), ToolCreatePost, map[string]any{"creation_id": "c-1"}, " ca_123 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Successful || !resp.HasData() {
		t.Fatalf("expected successful response with data: %+v", resp)
	}
	var data struct {
		ID string `json:"id"`
	}
	if err := resp.DecodeData(&data); err != nil || data.ID != "post-1" {
		t.Errorf("DecodeData = %+v, %v", data, err)
	}
}

func TestExecuteOmitsEmptyConnectedAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]json.RawMessage
		json.Unmarshal(raw, &body)
		if _, ok := body["connected_account_id"]; ok {
			t.Errorf("connected_account_id key must be absent, body: %s", raw)
		}
		if string(body["arguments"]) != "{}" {
			t.Errorf("expected empty arguments object, got %s", body["arguments"])
		}
		io.WriteString(w, `{"successful":true,"data":{"id":"17841412345678"}}`)
	}))
	defer server.Close()

	client := newTestClient(server)
	if _, err := client.Execute(context.Background(), ToolGetUserInfo, nil, "   "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExecuteNon2xxIsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, "forbidden")
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.Execute(context.Background(), ToolCreateMediaContainer, nil, "")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %d", statusErr.StatusCode)
	}
	want := "Composio INSTAGRAM_CREATE_MEDIA_CONTAINER failed: 403 - forbidden"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestExecuteUnsuccessfulIsNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"successful":false,"data":null,"error":"rate limited"}`)
	}))
	defer server.Close()

	client := newTestClient(server)
	resp, err := client.Execute(context.Background(), ToolCreatePost, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Successful || resp.HasData() {
		t.Errorf("expected unsuccessful response without data: %+v", resp)
	}
	if resp.ErrorMessage() != "rate limited" {
		t.Errorf("unexpected error message: %q", resp.ErrorMessage())
	}
}

func TestErrorMessageShapes(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: ``, want: ""},
		{raw: `null`, want: ""},
		{raw: `"plain"`, want: "plain"},
		{raw: `{"message":"from message"}`, want: "from message"},
		{raw: `{"error":"from error"}`, want: "from error"},
		{raw: `{"code":9007}`, want: `{"code":9007}`},
	}
	for _, tt := range tests {
		r := &Response{Error: json.RawMessage(tt.raw)}
		if got := r.ErrorMessage(); got != tt.want {
			t.Errorf("ErrorMessage(%s) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestExecuteTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newTestClient(server)
	server.Close()

	_, err := client.Execute(context.Background(), ToolGetMedia, nil, "")
	if err == nil || !strings.Contains(err.Error(), "request failed") {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestExecuteStatusErrorBodyIsValidUTF8(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, strings.Repeat("é", 600))
	}))
	defer server.Close()

	_, err := newTestClient(server).Execute(context.Background(), ToolGetUserInfo, nil, "")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if !utf8.ValidString(statusErr.Body) {
		t.Errorf("body is not valid UTF-8: %q", statusErr.Body)
	}
	if want := strings.Repeat("é", 500) + "..."; statusErr.Body != want {
		t.Errorf("body has %d runes, want 500 plus ellipsis", utf8.RuneCountInString(statusErr.Body))
	}
}
