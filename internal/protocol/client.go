package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/pesio-ai/be-esaf-workflow/internal/apperrors"
)

// Message is the wire shape of one send call: a correlation ID plus the
// intent envelope.
type Message struct {
	MessageID string   `json:"messageId"`
	Envelope  Envelope `json:"envelope"`
}

// Response is the wire shape of every reply: exactly one of result or error.
type Response struct {
	Result json.RawMessage  `json:"result,omitempty"`
	Error  *apperrors.Error `json:"error,omitempty"`
}

// Client is a memoised connection to one destination service, built from
// its published capability descriptor.
type Client struct {
	httpc      *http.Client
	descriptor Descriptor
	messageURL string
}

// NewClient fetches the destination's capability descriptor from the
// well-known path and returns a reusable client for it.
func NewClient(ctx context.Context, httpc *http.Client, baseURL string) (*Client, error) {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+WellKnownPath, nil)
	if err != nil {
		return nil, apperrors.Downstream(err, "build capability request")
	}

	resp, err := httpc.Do(req)
	if err != nil {
		return nil, apperrors.Downstream(err, fmt.Sprintf("fetch capability descriptor from %s", base))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Downstream(nil,
			fmt.Sprintf("capability descriptor fetch from %s returned status %d", base, resp.StatusCode))
	}

	var descriptor Descriptor
	if err := json.NewDecoder(resp.Body).Decode(&descriptor); err != nil {
		return nil, apperrors.Downstream(err, "decode capability descriptor")
	}

	endpoint := descriptor.Endpoint
	if endpoint == "" {
		endpoint = MessagePath
	}
	messageURL := endpoint
	if strings.HasPrefix(endpoint, "/") {
		messageURL = base + endpoint
	}

	return &Client{httpc: httpc, descriptor: descriptor, messageURL: messageURL}, nil
}

// Descriptor returns the capability descriptor the client was built from.
func (c *Client) Descriptor() Descriptor {
	return c.descriptor
}

// Send posts the envelope to the destination and blocks for the single
// structured result or structured error. There is no retry, timeout or
// cancellation beyond what ctx carries.
func (c *Client) Send(ctx context.Context, env Envelope, out any) error {
	msg := Message{
		MessageID: uuid.NewString(),
		Envelope:  env,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return apperrors.Downstream(err, "marshal message")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.messageURL, bytes.NewReader(body))
	if err != nil {
		return apperrors.Downstream(err, "build message request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return apperrors.Downstream(err, fmt.Sprintf("send '%s' to %s", env.Intent, c.messageURL))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Downstream(err, "read message response")
	}

	var decoded Response
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return apperrors.Downstream(err,
			fmt.Sprintf("malformed response from %s (status %d)", c.messageURL, resp.StatusCode))
	}

	if decoded.Error != nil {
		// Structured errors pass through with their original code so the
		// caller can distinguish not_found from sequencing violations.
		return decoded.Error
	}

	if out != nil && len(decoded.Result) > 0 {
		if err := json.Unmarshal(decoded.Result, out); err != nil {
			return apperrors.Downstream(err, "decode message result")
		}
	}
	return nil
}

// Registry hands out one client per destination for the process lifetime,
// fetching each capability descriptor at most once.
type Registry struct {
	httpc *http.Client

	mu      sync.Mutex
	clients map[string]*Client
}

// NewRegistry creates a client registry using the given HTTP client.
func NewRegistry(httpc *http.Client) *Registry {
	return &Registry{
		httpc:   httpc,
		clients: make(map[string]*Client),
	}
}

// Client returns the memoised client for baseURL, discovering the
// destination's capabilities on first use. A failed discovery is not
// cached, so a later call can retry.
func (r *Registry) Client(ctx context.Context, baseURL string) (*Client, error) {
	key := strings.TrimRight(strings.TrimSpace(baseURL), "/")

	r.mu.Lock()
	if client, ok := r.clients[key]; ok {
		r.mu.Unlock()
		return client, nil
	}
	r.mu.Unlock()

	client, err := NewClient(ctx, r.httpc, key)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.clients[key]; ok {
		return existing, nil
	}
	r.clients[key] = client
	return client, nil
}
