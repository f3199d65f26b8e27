// Package wire defines the JSON records exchanged with the server's batch
// endpoint. Field names are part of the protocol and must not change.
package wire

import (
	"encoding/json"
	"fmt"
)

// JobPayload is one submitted job. ID must equal the job's position within the
// batch because forward references elsewhere in the payload are expressed in
// terms of it.
type JobPayload struct {
	ID     int    `json:"id"`
	Method string `json:"method"`
	To     string `json:"to"`
	Body   any    `json:"body,omitempty"`
}

// ReplyElement is one element of the batch response. Elements may arrive in
// any order; ID correlates a reply with its job.
type ReplyElement struct {
	ID       int    `json:"id"`
	From     string `json:"from"`
	Status   *int   `json:"status,omitempty"`
	Location string `json:"location,omitempty"`
	Body     any    `json:"body,omitempty"`
}

// StatusCode returns the reply's HTTP status, defaulting to 200 when the
// server omitted the field (older servers only send it on failure).
func (r ReplyElement) StatusCode() int {
	if r.Status == nil {
		return 200
	}
	return *r.Status
}

// ErrorPayload is the server's error envelope inside a failed reply body.
type ErrorPayload struct {
	Message    string   `json:"message"`
	Exception  string   `json:"exception"`
	FullName   string   `json:"fullname"`
	StackTrace []string `json:"stacktrace,omitempty"`
}

// EncodeJobs marshals a batch payload in submission order.
func EncodeJobs(jobs []JobPayload) ([]byte, error) {
	data, err := json.Marshal(jobs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch payload: %w", err)
	}
	return data, nil
}

// DecodeReplies unmarshals a full batch response body.
func DecodeReplies(data []byte) ([]ReplyElement, error) {
	var replies []ReplyElement
	if err := json.Unmarshal(data, &replies); err != nil {
		return nil, fmt.Errorf("failed to decode batch response: %w", err)
	}
	return replies, nil
}
