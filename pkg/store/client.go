// Package store talks to the persistence service holding threads and
// messages, and doubles as the trace collaborator.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/chat"
	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/session"
)

// Client is the HTTP client for the thread/message API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var (
	_ session.Store      = (*Client)(nil)
	_ session.TraceStore = (*Client)(nil)
)

func NewClient(baseURL string) *Client {
	return NewClientWithTimeout(baseURL, 30*time.Second)
}

func NewClientWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type wireMessage struct {
	ID        string             `json:"id"`
	Role      string             `json:"role"`
	Content   []chat.ContentPart `json:"content"`
	CreatedAt time.Time          `json:"created_at"`
}

// CreateThread creates a new thread with the given title. New threads
// start private.
func (c *Client) CreateThread(ctx context.Context, title string) (chat.Thread, error) {
	payload := map[string]string{
		"title":      title,
		"visibility": chat.VisibilityPrivate,
	}
	var thread chat.Thread
	err := c.do(ctx, http.MethodPost, "/v1/threads", payload, &thread)
	if err != nil {
		return chat.Thread{}, fmt.Errorf("failed to create thread: %w", err)
	}
	return thread, nil
}

// Thread fetches a thread by id.
func (c *Client) Thread(ctx context.Context, id string) (chat.Thread, error) {
	var thread chat.Thread
	if err := c.do(ctx, http.MethodGet, "/v1/threads/"+id, nil, &thread); err != nil {
		return chat.Thread{}, fmt.Errorf("failed to get thread %s: %w", id, err)
	}
	return thread, nil
}

// Messages fetches the persisted messages of a thread in order.
func (c *Client) Messages(ctx context.Context, threadID string) ([]chat.Message, error) {
	var resp struct {
		Messages []wireMessage `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/threads/"+threadID+"/messages", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get messages for thread %s: %w", threadID, err)
	}
	messages := make([]chat.Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		messages = append(messages, chat.Message{
			ID:        m.ID,
			Role:      m.Role,
			Parts:     m.Content,
			Timestamp: m.CreatedAt,
		})
	}
	return messages, nil
}

// AppendMessage writes a message to a thread and returns the server id.
func (c *Client) AppendMessage(ctx context.Context, threadID, role string, parts []chat.ContentPart) (string, error) {
	payload := map[string]any{"role": role, "content": parts}
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/threads/"+threadID+"/messages", payload, &resp); err != nil {
		return "", fmt.Errorf("failed to append message to thread %s: %w", threadID, err)
	}
	return resp.ID, nil
}

// UpdateThreadTitle renames a thread.
func (c *Client) UpdateThreadTitle(ctx context.Context, threadID, title string) error {
	if err := c.do(ctx, http.MethodPatch, "/v1/threads/"+threadID, map[string]string{"title": title}, nil); err != nil {
		return fmt.Errorf("failed to update thread %s: %w", threadID, err)
	}
	return nil
}

// AttachTraceSession links a trace session to a persisted message.
func (c *Client) AttachTraceSession(ctx context.Context, threadID, traceSessionID, messageID string) error {
	payload := map[string]string{
		"trace_session_id": traceSessionID,
		"message_id":       messageID,
	}
	if err := c.do(ctx, http.MethodPost, "/v1/threads/"+threadID+"/trace-sessions", payload, nil); err != nil {
		return fmt.Errorf("failed to attach trace session %s: %w", traceSessionID, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		reqBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(reqBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errorBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(errorBody))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
