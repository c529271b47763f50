// Package ensembl is a thin client for the Ensembl REST sequence endpoint.
package ensembl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPDoer lets tests swap the transport.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL string
	http    HTTPDoer
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// NormalizeTranscriptID strips a trailing version suffix:
// "ENST00000398417.1" -> "ENST00000398417". IDs without a period pass
// through unchanged.
func NormalizeTranscriptID(id string) string {
	if i := strings.IndexByte(id, '.'); i >= 0 {
		return id[:i]
	}
	return id
}

// ProteinSequence fetches the translated (protein) sequence for a transcript
// ID. Returns ok=false when Ensembl answers with any non-2xx status; err is
// reserved for transport-level faults. The body is returned verbatim.
func (c *Client) ProteinSequence(ctx context.Context, transcriptID string) (string, bool, error) {
	url := fmt.Sprintf("%s/sequence/id/%s?type=protein", c.baseURL, transcriptID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, fmt.Errorf("build sequence request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("ensembl GET %s: %w", transcriptID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", false, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("read sequence body: %w", err)
	}
	return string(body), true, nil
}
