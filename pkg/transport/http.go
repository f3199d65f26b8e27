// Package transport implements the HTTP exchange behind the batch runner:
// one POST to the server's batch endpoint, one incrementally-decoded JSON
// array back.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dd0wney/cluso-graphclient/pkg/batch"
	"github.com/dd0wney/cluso-graphclient/pkg/logging"
	"github.com/dd0wney/cluso-graphclient/pkg/wire"
	"github.com/golang/snappy"
)

const defaultTimeout = 30 * time.Second

// HTTPTransport posts batch payloads over HTTP. It implements
// batch.Transport.
type HTTPTransport struct {
	baseURL  string
	client   *http.Client
	auth     AuthProvider
	compress bool
	logger   logging.Logger
}

// Option configures an HTTPTransport.
type Option func(*HTTPTransport)

// WithHTTPClient replaces the default client (30s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(t *HTTPTransport) { t.client = c }
}

// WithAuth attaches credentials to every request.
func WithAuth(a AuthProvider) Option {
	return func(t *HTTPTransport) { t.auth = a }
}

// WithCompression snappy-compresses request bodies. The server must accept
// Content-Encoding: snappy.
func WithCompression() Option {
	return func(t *HTTPTransport) { t.compress = true }
}

// WithLogger sets the transport's logger.
func WithLogger(l logging.Logger) Option {
	return func(t *HTTPTransport) { t.logger = l }
}

// NewHTTPTransport creates a transport rooted at the server's data endpoint,
// e.g. "http://localhost:7474/db/data".
func NewHTTPTransport(baseURL string, opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// PostBatch sends one batch payload and returns the streaming response.
func (t *HTTPTransport) PostBatch(ctx context.Context, payloads []wire.JobPayload) (batch.Response, error) {
	body, err := wire.EncodeJobs(payloads)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch payload: %w", err)
	}

	if t.compress {
		body = snappy.Encode(nil, body)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/batch", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if t.compress {
		req.Header.Set("Content-Encoding", "snappy")
	}

	if t.auth != nil {
		if err := t.auth.Authorize(req); err != nil {
			return nil, fmt.Errorf("failed to authorize batch request: %w", err)
		}
	}

	t.logger.Debug("posting batch",
		logging.Int("jobs", len(payloads)),
		logging.Int("bytes", len(body)))

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("batch endpoint returned HTTP %d: %s",
			resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	return &httpResponse{resp: resp}, nil
}

// httpResponse decodes the response body as a JSON array of reply elements,
// one element per Next call, without buffering the whole body.
type httpResponse struct {
	resp    *http.Response
	dec     *json.Decoder
	started bool
	closed  bool
}

func (r *httpResponse) ContentLength() int64 {
	return r.resp.ContentLength
}

func (r *httpResponse) ContentType() string {
	return r.resp.Header.Get("Content-Type")
}

func (r *httpResponse) Next() (wire.ReplyElement, error) {
	if r.closed {
		return wire.ReplyElement{}, io.EOF
	}
	if r.dec == nil {
		r.dec = json.NewDecoder(r.resp.Body)
	}

	if !r.started {
		tok, err := r.dec.Token()
		if err != nil {
			// An empty body has no opening bracket; report that as a
			// malformed response, never as a clean end of stream.
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return wire.ReplyElement{}, fmt.Errorf("failed to parse batch response: %w", err)
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			return wire.ReplyElement{}, fmt.Errorf("failed to parse batch response: expected array, got %v", tok)
		}
		r.started = true
	}

	if !r.dec.More() {
		if _, err := r.dec.Token(); err != nil {
			return wire.ReplyElement{}, fmt.Errorf("failed to parse batch response: %w", err)
		}
		return wire.ReplyElement{}, io.EOF
	}

	var reply wire.ReplyElement
	if err := r.dec.Decode(&reply); err != nil {
		return wire.ReplyElement{}, fmt.Errorf("failed to parse reply element: %w", err)
	}
	return reply, nil
}

func (r *httpResponse) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	io.Copy(io.Discard, r.resp.Body)
	return r.resp.Body.Close()
}
