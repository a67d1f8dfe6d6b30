// Package jsonbin stores the ledger document in a JSONBin v3 bin.
package jsonbin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"lapkeu/internal/core"
	"lapkeu/internal/store"
)

// DefaultBaseURL is the public JSONBin v3 API.
const DefaultBaseURL = "https://api.jsonbin.io/v3"

// maxErrorBody caps how much of a failed response ends up in an error.
const maxErrorBody = 512

type Config struct {
	BaseURL   string
	BinID     string
	MasterKey string
	// HTTPClient defaults to a client with a 30s timeout. Per-call deadlines
	// come from the context.
	HTTPClient *http.Client
}

type Client struct {
	baseURL   string
	binID     string
	masterKey string
	http      *http.Client
}

var _ store.DocumentStore = (*Client)(nil)

// New validates cfg. A missing bin id or key yields an error wrapping
// store.ErrNotConfigured that names the environment variables to set.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BinID) == "" {
		return nil, fmt.Errorf("%w: missing env JSONBIN_BIN_ID", store.ErrNotConfigured)
	}
	if strings.TrimSpace(cfg.MasterKey) == "" {
		return nil, fmt.Errorf("%w: missing env JSONBIN_SECRET_KEY/JSONBIN_API_KEY", store.ErrNotConfigured)
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:   base,
		binID:     strings.TrimSpace(cfg.BinID),
		masterKey: strings.TrimSpace(cfg.MasterKey),
		http:      hc,
	}, nil
}

func (c *Client) Name() string { return "jsonbin" }

func (c *Client) binURL() string {
	return c.baseURL + "/b/" + c.binID
}

// Load fetches the latest version of the bin.
func (c *Client) Load(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.binURL()+"/latest", nil)
	if err != nil {
		return nil, fmt.Errorf("build GET request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Cache-Control", "no-store")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "Loaded JSONBin document", "bin", c.binID, "bytes", len(body))
	return body, nil
}

// Save replaces the bin's content with doc.
func (c *Client) Save(ctx context.Context, doc []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.binURL(), bytes.NewReader(doc))
	if err != nil {
		return fmt.Errorf("build PUT request: %w", err)
	}
	c.setHeaders(req)

	if _, err := c.do(req); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Saved JSONBin document", "bin", c.binID, "bytes", len(doc))
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Master-Key", c.masterKey)
	req.Header.Set("X-Access-Key", c.masterKey)
	// makes GET return the record without the metadata envelope
	req.Header.Set("X-Bin-Meta", "false")
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s %s: %w", req.Method, c.binID, ctxErr)
		}
		return nil, fmt.Errorf("%w: %s: %v", core.ErrStoreUnavailable, req.Method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %v", core.ErrStoreUnavailable, req.Method, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := strings.TrimSpace(string(body))
		if len(excerpt) > maxErrorBody {
			excerpt = excerpt[:maxErrorBody]
		}
		return nil, &StatusError{Method: req.Method, Status: resp.StatusCode, Body: excerpt}
	}
	return body, nil
}

// StatusError is a non-2xx answer from JSONBin.
type StatusError struct {
	Method string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Method, e.Status, e.Body)
}

// Unwrap makes every StatusError a store-unavailable failure.
func (e *StatusError) Unwrap() error { return core.ErrStoreUnavailable }
