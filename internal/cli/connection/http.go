package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// APIError is an error response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *APIError) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// envelope mirrors the server response envelope.
type envelope struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
	Details   any             `json:"details"`
}

// HTTPClient provides HTTP communication with the server.
type HTTPClient struct {
	baseURL    string
	client     *http.Client
	adminToken string
}

// NewHTTPClient creates a new HTTP client. adminToken is sent only to
// /admin routes.
func NewHTTPClient(server, adminToken string, timeout time.Duration) *HTTPClient {
	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	return &HTTPClient{
		baseURL:    baseURL,
		adminToken: adminToken,
		client:     &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Do sends a request and returns the raw response. Callers close the body.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", "shardkv-cli/1.0")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.adminToken != "" && strings.HasPrefix(path, "/admin/") {
		req.Header.Set("Authorization", "Bearer "+c.adminToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// PutResult is the result of a put.
type PutResult struct {
	Created bool `json:"created"`
	Shard   int  `json:"shard"`
}

// ListResult is one page of keys.
type ListResult struct {
	Keys      []string `json:"keys"`
	Truncated bool     `json:"truncated"`
}

// ShardCount is the entry count of one shard.
type ShardCount struct {
	Index int `json:"index"`
	Count int `json:"count"`
}

// StatsResult describes how keys are spread over shards.
type StatsResult struct {
	Keys   int          `json:"keys"`
	Shards []ShardCount `json:"shards"`
}

// MoveResult is the result of a move.
type MoveResult struct {
	From      string `json:"from"`
	To        string `json:"to"`
	FromShard int    `json:"from_shard"`
	ToShard   int    `json:"to_shard"`
}

// Get returns the value stored under key.
func (c *HTTPClient) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := c.Do(ctx, http.MethodGet, keyPath(key), nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp)
	}
	return io.ReadAll(resp.Body)
}

// Put stores value under key. With nowait a busy shard fails instead of
// being waited for.
func (c *HTTPClient) Put(ctx context.Context, key string, value io.Reader, nowait bool) (*PutResult, error) {
	path := keyPath(key)
	if nowait {
		path += "?nowait=true"
	}
	resp, err := c.Do(ctx, http.MethodPut, path, value, "application/octet-stream")
	if err != nil {
		return nil, err
	}
	var result PutResult
	return &result, ParseResponse(resp, &result)
}

// Delete removes key.
func (c *HTTPClient) Delete(ctx context.Context, key string) error {
	resp, err := c.Do(ctx, http.MethodDelete, keyPath(key), nil, "")
	if err != nil {
		return err
	}
	return ParseResponse(resp, nil)
}

// List returns keys starting with prefix.
func (c *HTTPClient) List(ctx context.Context, prefix string, limit int) (*ListResult, error) {
	q := url.Values{}
	if prefix != "" {
		q.Set("prefix", prefix)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/v1/keys"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.Do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	var result ListResult
	return &result, ParseResponse(resp, &result)
}

// Move renames from to to.
func (c *HTTPClient) Move(ctx context.Context, from, to string, overwrite bool) (*MoveResult, error) {
	body, err := json.Marshal(map[string]any{"from": from, "to": to, "overwrite": overwrite})
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, http.MethodPost, "/v1/move", bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}
	var result MoveResult
	return &result, ParseResponse(resp, &result)
}

// Stats returns the key distribution over shards.
func (c *HTTPClient) Stats(ctx context.Context) (*StatsResult, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/v1/stats", nil, "")
	if err != nil {
		return nil, err
	}
	var result StatsResult
	return &result, ParseResponse(resp, &result)
}

// Status returns the admin status summary.
func (c *HTTPClient) Status(ctx context.Context) (map[string]any, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/admin/v1/status", nil, "")
	if err != nil {
		return nil, err
	}
	var result map[string]any
	return result, ParseResponse(resp, &result)
}

// Backup streams a storage backup into w and returns the bytes copied.
func (c *HTTPClient) Backup(ctx context.Context, w io.Writer) (int64, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/admin/v1/backup", nil, "")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, parseError(resp)
	}
	return io.Copy(w, resp.Body)
}

// ParseResponse decodes the data of a JSON envelope into target and closes
// the body. Error statuses become *APIError.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return parseError(resp)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if target != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, target); err != nil {
			return fmt.Errorf("parse response data: %w", err)
		}
	}
	return nil
}

func parseError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Code: resp.Header.Get("X-Error-Code")}

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env); err == nil && env.Message != "" {
		apiErr.Code = env.Code
		apiErr.Message = env.Message
		apiErr.Details = env.Details
		return apiErr
	}

	if apiErr.Code == "" {
		apiErr.Code = strconv.Itoa(resp.StatusCode)
	}
	apiErr.Message = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	return apiErr
}

func keyPath(key string) string {
	return "/v1/keys/" + url.PathEscape(key)
}
