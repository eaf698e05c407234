package handler

import "time"

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// DeleteResponse is the response body for DELETE /v1/keys/{key}.
type DeleteResponse struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted"`
}

// MoveResponse is the response body for POST /v1/move.
type MoveResponse struct {
	From      string `json:"from"`
	To        string `json:"to"`
	FromShard int    `json:"from_shard"`
	ToShard   int    `json:"to_shard"`
}

// StorageStatus is the storage part of GET /admin/v1/status.
type StorageStatus struct {
	Persistent   bool      `json:"persistent"`
	LSMSize      int64     `json:"lsm_size"`
	ValueLogSize int64     `json:"value_log_size"`
	LastGC       time.Time `json:"last_gc,omitzero"`
}
