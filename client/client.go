package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/flashbots/disco-relay/crypto"
	"github.com/flashbots/disco-relay/record"
	"github.com/flashbots/disco-relay/relay"
)

var (
	// ErrNotFound is returned when the relay has no record for an identity.
	ErrNotFound = errors.New("record not found")

	// ErrRejected is returned when the relay refuses a publish.
	ErrRejected = errors.New("record rejected by relay")
)

// Client talks to a relay over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// New creates a client for the relay at baseURL, e.g. "https://relay.example.org".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Publish uploads rec under its own identity.
func (c *Client) Publish(ctx context.Context, rec *record.SignedRecord) error {
	url := fmt.Sprintf("%s/%s", c.baseURL, rec.PublicKey.Z32())
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(rec.Bytes()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("publish %s: %w", rec.PublicKey, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return responseError(resp, ErrRejected)
	}
	return nil
}

// Resolve fetches the record for pk and verifies it before returning it.
func (c *Client) Resolve(ctx context.Context, pk crypto.PublicKey) (*record.SignedRecord, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, pk.Z32())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", pk, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp, ErrNotFound)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, record.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}
	return verify(pk, body)
}

// ResolveMany resolves several identities in one request. Identities the
// relay does not know, and records that fail verification, are omitted.
func (c *Client) ResolveMany(ctx context.Context, pks []crypto.PublicKey) ([]*record.SignedRecord, error) {
	batch := relay.BatchRequest{IDs: make([]string, len(pks))}
	byID := make(map[string]crypto.PublicKey, len(pks))
	for i, pk := range pks {
		batch.IDs[i] = pk.Z32()
		byID[pk.Z32()] = pk
	}

	body, err := json.Marshal(batch)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/batch", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("batch resolve: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp, ErrRejected)
	}

	var out relay.BatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding batch response: %w", err)
	}

	records := make([]*record.SignedRecord, 0, len(out.Records))
	for _, r := range out.Records {
		pk, ok := byID[r.ID]
		if !ok {
			continue
		}
		rec, err := verify(pk, r.Record)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func verify(pk crypto.PublicKey, b []byte) (*record.SignedRecord, error) {
	rec, err := record.ParseFor(pk, b)
	if err != nil {
		return nil, fmt.Errorf("relay returned invalid record for %s: %w", pk, err)
	}
	if err := rec.Verify(); err != nil {
		return nil, fmt.Errorf("relay returned invalid record for %s: %w", pk, err)
	}
	return rec, nil
}

// responseError turns a non-200 response into an error. 404 responses wrap
// kind; anything else is a relay failure.
func responseError(resp *http.Response, kind error) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	text := strings.TrimSpace(string(msg))
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", kind, text)
	}
	return fmt.Errorf("relay error (%d): %s", resp.StatusCode, text)
}
