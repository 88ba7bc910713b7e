// Package backend talks to the assistant service that produces the turn
// event stream.
package backend

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

// Client is the HTTP client for the streaming endpoints. A zero timeout
// leaves streamed turns unbounded, which is the default: the engine's only
// termination signals are transport close and cancellation.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ session.Backend = (*Client)(nil)

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

func NewClientWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type historyMessage struct {
	Role    string             `json:"role"`
	Content []chat.ContentPart `json:"content"`
}

type turnPayload struct {
	ThreadID             string            `json:"thread_id"`
	Query                string            `json:"query"`
	History              []historyMessage  `json:"history"`
	Attachments          []chat.Attachment `json:"attachments,omitempty"`
	MentionedDocumentIDs []string          `json:"mentioned_document_ids,omitempty"`
}

type regeneratePayload struct {
	ThreadID string `json:"thread_id"`
	Query    string `json:"query,omitempty"`
}

// StartTurn opens the event stream for a new turn. The caller owns the
// returned body.
func (c *Client) StartTurn(ctx context.Context, req session.TurnRequest) (io.ReadCloser, error) {
	history := make([]historyMessage, 0, len(req.History))
	for _, m := range req.History {
		history = append(history, historyMessage{Role: m.Role, Content: m.Parts})
	}
	payload := turnPayload{
		ThreadID:             req.ThreadID,
		Query:                req.Query,
		History:              history,
		Attachments:          req.Attachments,
		MentionedDocumentIDs: req.MentionedDocumentIDs,
	}
	return c.openStream(ctx, "/api/chat/stream", payload)
}

// Regenerate asks the backend to rewind to just before the last turn and
// re-run it, optionally with a replacement query.
func (c *Client) Regenerate(ctx context.Context, threadID, query string) (io.ReadCloser, error) {
	return c.openStream(ctx, "/api/chat/regenerate", regeneratePayload{ThreadID: threadID, Query: query})
}

func (c *Client) openStream(ctx context.Context, path string, payload any) (io.ReadCloser, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		errorBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("request failed with status %d (failed to read error response: %w)", resp.StatusCode, readErr)
		}

		var errorResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(errorBody, &errorResp) == nil && errorResp.Error != "" {
			return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, errorResp.Error)
		}
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(errorBody))
	}

	return resp.Body, nil
}
