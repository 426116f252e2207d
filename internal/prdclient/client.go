// Package prdclient calls the document service over its tool protocol endpoint (POST /sse).
package prdclient

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"prdapi/internal/mcp"
	"prdapi/internal/model"
)

var (
	ErrNotFound    = errors.New("prd not found")
	ErrValidation  = errors.New("invalid request")
	ErrBackend     = errors.New("document service unavailable")
	ErrMissingTool = errors.New("document service lacks a required tool")
)

const (
	defaultTimeout = 60 * time.Second
	maxBodyBytes   = 32 << 20
)

// Client is a document service client.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the traced default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New returns a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(baseURL, "/") + "/sse",
		http: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ListTools returns the tools the service exposes.
func (c *Client) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	resp, err := c.do(ctx, mcp.Request{Method: mcp.MethodListTools})
	if err != nil {
		return nil, err
	}
	return resp.Tools, nil
}

// CheckTools fails unless the service exposes search, get and store.
func (c *Client) CheckTools(ctx context.Context) error {
	tools, err := c.ListTools(ctx)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(tools))
	for _, t := range tools {
		have[t.Name] = true
	}
	var missing []string
	for _, name := range []string{mcp.ToolSearch, mcp.ToolGet, mcp.ToolStore} {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingTool, strings.Join(missing, ", "))
	}
	return nil
}

// Search looks for documents similar to query.
func (c *Client) Search(ctx context.Context, query string) (*model.SearchResponse, error) {
	var out model.SearchResponse
	if err := c.call(ctx, mcp.ToolSearch, mcp.SearchArgs{Query: query}, &out); err != nil {
		return nil, err
	}
	if out.Results == nil {
		out.Results = []model.SearchResult{}
	}
	return &out, nil
}

// Get fetches one document.
func (c *Client) Get(ctx context.Context, id string) (*model.Document, error) {
	var out model.Document
	if err := c.call(ctx, mcp.ToolGet, mcp.GetArgs{ID: id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Store saves a new document.
func (c *Client) Store(ctx context.Context, in model.StoreInput) (*model.StoreResult, error) {
	var out model.StoreResult
	args := mcp.StoreArgs{
		ProductName: in.ProductName,
		Content:     in.Content,
		Author:      in.Author,
		Version:     in.Version,
		Metadata:    in.Metadata,
	}
	if err := c.call(ctx, mcp.ToolStore, args, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) call(ctx context.Context, tool string, args, out any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, mcp.Request{
		Method: mcp.MethodCallTool,
		Params: mcp.Params{Name: tool, Arguments: raw},
	})
	if err != nil {
		return err
	}
	text, ok := resp.Text()
	if !ok {
		return fmt.Errorf("%w: %s returned no content", ErrBackend, tool)
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("%w: decode %s result: %v", ErrBackend, tool, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, r mcp.Request) (mcp.Response, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return mcp.Response{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return mcp.Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return mcp.Response{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return mcp.Response{}, fmt.Errorf("%w: read response: %v", ErrBackend, err)
	}
	if res.StatusCode != http.StatusOK {
		if res.StatusCode == http.StatusBadRequest {
			return mcp.Response{}, fmt.Errorf("%w: status %d", ErrValidation, res.StatusCode)
		}
		return mcp.Response{}, fmt.Errorf("%w: status %d", ErrBackend, res.StatusCode)
	}

	resp, err := mcp.DecodeFrame(b)
	if err != nil {
		return mcp.Response{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if resp.Error != "" {
		return mcp.Response{}, toolError(resp)
	}
	return resp, nil
}

func toolError(r mcp.Response) error {
	switch r.Code {
	case mcp.CodeNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, r.Error)
	case mcp.CodeValidation, mcp.CodeUnknownTool, mcp.CodeUnknownMethod:
		return fmt.Errorf("%w: %s", ErrValidation, r.Error)
	default:
		return fmt.Errorf("%w: %s", ErrBackend, r.Error)
	}
}
