package tsa

import (
	"bytes"
	"context"
	"crypto"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/digitorus/timestamp"
)

const requestContentType = "application/timestamp-query"

// RFC3161Timestamper requests time-stamp tokens from an RFC 3161 authority
// over HTTP.
type RFC3161Timestamper struct {
	url    string
	client *http.Client
}

// NewRFC3161Timestamper creates a Timestamper for the authority at url.
func NewRFC3161Timestamper(url string, requestTimeout time.Duration) *RFC3161Timestamper {
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}

	return &RFC3161Timestamper{
		url:    url,
		client: &http.Client{Timeout: requestTimeout},
	}
}

// Timestamp hashes the reader's contents, submits a time-stamp query to the
// authority and returns the DER-encoded time-stamp response.
func (t *RFC3161Timestamper) Timestamp(ctx context.Context, r io.Reader) ([]byte, error) {
	tsq, err := timestamp.CreateRequest(r, &timestamp.RequestOptions{
		Hash:         crypto.SHA256,
		Certificates: true,
	})
	if err != nil {
		return nil, fmt.Errorf("tsa: create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(tsq))
	if err != nil {
		return nil, fmt.Errorf("tsa: build request: %w", err)
	}
	req.Header.Set("Content-Type", requestContentType)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tsa: query authority: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tsa: authority returned status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tsa: read response: %w", err)
	}

	// Parse to reject malformed or failed responses before storing the token.
	if _, err := timestamp.ParseResponse(body); err != nil {
		return nil, fmt.Errorf("tsa: parse response: %w", err)
	}

	return body, nil
}
