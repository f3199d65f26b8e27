package wire

import (
	"encoding/json"
	"testing"
)

func TestEncodeJobsFieldNames(t *testing.T) {
	jobs := []JobPayload{
		{ID: 0, Method: "POST", To: "node", Body: map[string]any{"name": "Alice"}},
		{ID: 1, Method: "GET", To: "{0}"},
	}

	data, err := EncodeJobs(jobs)
	if err != nil {
		t.Fatalf("EncodeJobs failed: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("round-trip decode failed: %v", err)
	}

	if len(decoded) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(decoded))
	}
	if decoded[0]["id"] != float64(0) || decoded[0]["method"] != "POST" || decoded[0]["to"] != "node" {
		t.Errorf("unexpected first payload: %v", decoded[0])
	}
	// body must be omitted entirely when absent, not serialized as null
	if _, present := decoded[1]["body"]; present {
		t.Error("empty body should be omitted from payload")
	}
	if decoded[1]["to"] != "{0}" {
		t.Errorf("forward reference not preserved: %v", decoded[1]["to"])
	}
}

func TestDecodeReplies(t *testing.T) {
	raw := `[
		{"id": 1, "from": "/node", "location": "http://localhost:7474/db/data/node/5", "body": {"self": "http://localhost:7474/db/data/node/5"}},
		{"id": 0, "from": "/cypher", "status": 500, "body": {"message": "boom", "exception": "SyntaxException"}}
	]`

	replies, err := DecodeReplies([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeReplies failed: %v", err)
	}
	if len(replies) != 2 {
		t.Fatalf("expected 2 replies, got %d", len(replies))
	}

	// out-of-order delivery is legal; decode must preserve what arrived
	if replies[0].ID != 1 || replies[1].ID != 0 {
		t.Errorf("reply ids = %d,%d, want 1,0", replies[0].ID, replies[1].ID)
	}
	if got := replies[0].StatusCode(); got != 200 {
		t.Errorf("omitted status should default to 200, got %d", got)
	}
	if got := replies[1].StatusCode(); got != 500 {
		t.Errorf("status = %d, want 500", got)
	}
}

func TestDecodeRepliesMalformed(t *testing.T) {
	if _, err := DecodeReplies([]byte(`{"not": "a list"`)); err == nil {
		t.Error("expected error for malformed response")
	}
}
