// Package memory implements the HTTP client for the external memory engine.
// The engine owns semantic extraction and vector search; this process only
// forwards requests and mirrors results.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/sidstack/sidmemo-server/internal/model"
)

var _ model.MemoryEngine = (*Client)(nil)

// Client talks to the memory engine sidecar over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates an engine client. Timeout bounds every call including
// body reads.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// engineMemory is the engine's wire representation of a memory.
type engineMemory struct {
	ID         uuid.UUID       `json:"id"`
	Memory     string          `json:"memory"`
	UserID     string          `json:"user_id"`
	AgentID    *string         `json:"agent_id,omitempty"`
	RunID      *string         `json:"run_id,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	Categories []string        `json:"categories,omitempty"`
	Score      *float64        `json:"score,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (m engineMemory) toRecord() model.MemoryRecord {
	return model.MemoryRecord{
		ID:         m.ID,
		UserKey:    m.UserID,
		AgentKey:   m.AgentID,
		RunKey:     m.RunID,
		Content:    m.Memory,
		Metadata:   m.Metadata,
		Categories: m.Categories,
		Score:      m.Score,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return model.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("engine returned status %d: %s", resp.StatusCode, snippet)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode engine response: %w", err)
		}
	}
	return nil
}

func collectionPath(collection string) string {
	return "/v1/collections/" + url.PathEscape(collection)
}

// Add extracts and stores memories from content. The engine may produce
// zero, one, or several memories per call.
func (c *Client) Add(ctx context.Context, collection string, req model.MemoryAddRequest) ([]model.MemoryRecord, error) {
	body := map[string]any{
		"content": req.Content,
		"user_id": req.UserKey,
	}
	if req.AgentKey != "" {
		body["agent_id"] = req.AgentKey
	}
	if req.RunKey != "" {
		body["run_id"] = req.RunKey
	}
	if len(req.Metadata) > 0 {
		body["metadata"] = req.Metadata
	}

	var out struct {
		Results []engineMemory `json:"results"`
	}
	err := c.do(ctx, http.MethodPost, collectionPath(collection)+"/memories", body, &out)
	if err != nil {
		return nil, err
	}

	records := make([]model.MemoryRecord, 0, len(out.Results))
	for _, m := range out.Results {
		records = append(records, m.toRecord())
	}
	return records, nil
}

func (c *Client) Get(ctx context.Context, collection string, id uuid.UUID) (model.MemoryRecord, error) {
	var out engineMemory
	err := c.do(ctx, http.MethodGet, collectionPath(collection)+"/memories/"+id.String(), nil, &out)
	if err != nil {
		return model.MemoryRecord{}, err
	}
	return out.toRecord(), nil
}

func (c *Client) Search(ctx context.Context, collection string, query string, userKey string, limit int) ([]model.MemorySearchResult, error) {
	body := map[string]any{
		"query":   query,
		"user_id": userKey,
		"limit":   limit,
	}

	var out struct {
		Results []engineMemory `json:"results"`
	}
	err := c.do(ctx, http.MethodPost, collectionPath(collection)+"/search", body, &out)
	if err != nil {
		return nil, err
	}

	results := make([]model.MemorySearchResult, 0, len(out.Results))
	for _, m := range out.Results {
		var score float64
		if m.Score != nil {
			score = *m.Score
		}
		results = append(results, model.MemorySearchResult{Record: m.toRecord(), Score: score})
	}
	return results, nil
}

func (c *Client) Update(ctx context.Context, collection string, id uuid.UUID, content string, metadata json.RawMessage) (model.MemoryRecord, error) {
	body := map[string]any{"memory": content}
	if len(metadata) > 0 {
		body["metadata"] = metadata
	}

	var out engineMemory
	err := c.do(ctx, http.MethodPut, collectionPath(collection)+"/memories/"+id.String(), body, &out)
	if err != nil {
		return model.MemoryRecord{}, err
	}
	return out.toRecord(), nil
}

func (c *Client) Delete(ctx context.Context, collection string, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, collectionPath(collection)+"/memories/"+id.String(), nil, nil)
}

// DeleteAll removes every memory for a user key and returns the count the
// engine reports.
func (c *Client) DeleteAll(ctx context.Context, collection string, userKey string) (int, error) {
	var out struct {
		Deleted int `json:"deleted"`
	}
	path := collectionPath(collection) + "/memories?user_id=" + url.QueryEscape(userKey)
	if err := c.do(ctx, http.MethodDelete, path, nil, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

// DropCollection removes the project's collection wholesale. Used on
// project archival.
func (c *Client) DropCollection(ctx context.Context, collection string) error {
	return c.do(ctx, http.MethodDelete, collectionPath(collection), nil, nil)
}

func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}
