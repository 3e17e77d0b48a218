package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// HTTPGenerator calls the external narrative service. The service contract
// is a single POST returning both audience summaries; anything else counts
// as a generation failure and the caller falls back to the template.
type HTTPGenerator struct {
	httpc   *http.Client
	baseURL string
}

// NewHTTPGenerator creates a generator for the narrative service at baseURL.
func NewHTTPGenerator(httpc *http.Client, baseURL string) *HTTPGenerator {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &HTTPGenerator{
		httpc:   httpc,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

// Generate posts the record and decodes the summary pair.
func (g *HTTPGenerator) Generate(ctx context.Context, record Record) (Summaries, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return Summaries{}, fmt.Errorf("marshal summary record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/summaries", bytes.NewReader(body))
	if err != nil {
		return Summaries{}, fmt.Errorf("build summary request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpc.Do(req)
	if err != nil {
		return Summaries{}, fmt.Errorf("call narrative service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Summaries{}, fmt.Errorf("narrative service returned status %d", resp.StatusCode)
	}

	var out Summaries
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Summaries{}, fmt.Errorf("decode narrative response: %w", err)
	}
	if out.SummaryForRequester == "" || out.SummaryForApprover == "" {
		return Summaries{}, fmt.Errorf("narrative service returned incomplete summaries")
	}
	return out, nil
}
