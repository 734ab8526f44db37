// Package attachment downloads patches from a URL or from the attachments of
// a Trac ticket.
package attachment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/syou6162/git-patch-import/internal/logger"
)

// DefaultServer is the Trac instance used when none is configured
const DefaultServer = "https://trac.sagemath.org/"

// Fetcher returns the raw bytes of a ticket attachment.
// An empty filename selects the ticket's only attachment.
type Fetcher interface {
	Fetch(ctx context.Context, ticket int, filename string) ([]byte, error)
}

// TracClient talks to a Trac server over HTTP
type TracClient struct {
	server     string
	httpClient *http.Client
	logger     *logger.Logger
}

// Option configures a TracClient
type Option func(*TracClient)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(t *TracClient) {
		t.httpClient = c
	}
}

// NewTracClient creates a client for the Trac server at server
func NewTracClient(server string, opts ...Option) *TracClient {
	if server == "" {
		server = DefaultServer
	}
	if !strings.HasSuffix(server, "/") {
		server += "/"
	}

	c := &TracClient{
		server:     server,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger.NewFromEnv(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AttachmentURL returns the raw download URL of an attachment
func (c *TracClient) AttachmentURL(ticket int, filename string) string {
	return fmt.Sprintf("%sraw-attachment/ticket/%d/%s", c.server, ticket, url.PathEscape(filename))
}

// Fetch implements Fetcher.Fetch
func (c *TracClient) Fetch(ctx context.Context, ticket int, filename string) ([]byte, error) {
	if filename == "" {
		names, err := c.ListAttachments(ctx, ticket)
		if err != nil {
			return nil, err
		}
		switch len(names) {
		case 0:
			return nil, NewNotFoundError(ticket)
		case 1:
			filename = names[0]
		default:
			return nil, NewAmbiguousAttachmentError(ticket, names)
		}
	}

	c.logger.Info("Downloading attachment %s of ticket #%d", filename, ticket)
	return c.Download(ctx, c.AttachmentURL(ticket, filename))
}

// Download fetches url and returns the response body
func (c *TracClient) Download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, NewTransportError(rawURL, err)
	}

	c.logger.Debug("GET %s", rawURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, NewTransportError(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, (&Error{
			Type:    ErrorTypeNotFound,
			Message: fmt.Sprintf("%s not found", rawURL),
		}).WithContext("url", rawURL)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewTransportError(rawURL, fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewTransportError(rawURL, err)
	}
	return body, nil
}

type rpcRequest struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
	ID     int           `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Name    string `json:"name"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
	ID     int             `json:"id"`
}

// ListAttachments returns the attachment names of a ticket through the
// JSON-RPC endpoint of Trac's XML-RPC plugin
func (c *TracClient) ListAttachments(ctx context.Context, ticket int) ([]string, error) {
	endpoint := c.server + "jsonrpc"

	payload, err := json.Marshal(rpcRequest{
		Method: "ticket.listAttachments",
		Params: []interface{}{ticket},
		ID:     1,
	})
	if err != nil {
		return nil, NewTransportError(endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, NewTransportError(endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("POST %s ticket.listAttachments(%d)", endpoint, ticket)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, NewTransportError(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewTransportError(endpoint, fmt.Errorf("unexpected status %s", resp.Status))
	}

	var rpc rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
		return nil, NewTransportError(endpoint, fmt.Errorf("failed to decode response: %w", err))
	}
	if rpc.Error != nil {
		return nil, NewTransportError(endpoint, fmt.Errorf("%s: %s", rpc.Error.Name, rpc.Error.Message))
	}

	// Each entry is [filename, description, size, time, author].
	var entries [][]json.RawMessage
	if err := json.Unmarshal(rpc.Result, &entries); err != nil {
		return nil, NewTransportError(endpoint, fmt.Errorf("unexpected result: %w", err))
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if len(entry) == 0 {
			continue
		}
		var name string
		if err := json.Unmarshal(entry[0], &name); err != nil {
			return nil, NewTransportError(endpoint, fmt.Errorf("unexpected attachment entry: %w", err))
		}
		names = append(names, name)
	}
	return names, nil
}
