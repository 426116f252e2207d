// Package mcp holds the wire types of the tool protocol served on POST /sse.
// Each request is answered with exactly one Server-Sent Event frame.
package mcp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Methods.
const (
	MethodListTools = "tools/list"
	MethodCallTool  = "tools/call"
)

// Tool names.
const (
	ToolSearch = "search_existing_prds"
	ToolGet    = "get_prd"
	ToolStore  = "store_prd"
)

// Error codes carried next to the error message.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeBackend       = "BACKEND_UNAVAILABLE"
	CodeUnknownTool   = "UNKNOWN_TOOL"
	CodeUnknownMethod = "UNKNOWN_METHOD"
)

// ErrNoFrame is returned when a response body carries no data frame.
var ErrNoFrame = errors.New("mcp: no data frame in response")

type Request struct {
	Method string `json:"method"`
	Params Params `json:"params,omitempty"`
}

type Params struct {
	Name      string          `json:"name,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Response is the payload of the single data frame. Exactly one of Tools, Content or Error is set.
type Response struct {
	Tools   []Tool    `json:"tools,omitempty"`
	Content []Content `json:"content,omitempty"`
	Error   string    `json:"error,omitempty"`
	Code    string    `json:"code,omitempty"`
}

type SearchArgs struct {
	Query string `json:"query"`
}

type GetArgs struct {
	ID string `json:"prd_id"`
}

type StoreArgs struct {
	ProductName string            `json:"product_name"`
	Content     string            `json:"content"`
	Author      string            `json:"author,omitempty"`
	Version     string            `json:"version,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Tools describes the tools the document service exposes.
func Tools() []Tool {
	str := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}
	return []Tool{
		{
			Name:        ToolSearch,
			Description: "Search for existing PRDs using full-text search. Returns matching PRDs with summaries.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{"query": str("Search query to find similar PRDs")},
				"required":   []string{"query"},
			},
		},
		{
			Name:        ToolGet,
			Description: "Retrieve the full content of a specific PRD by its ID.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{"prd_id": str("The unique identifier of the PRD to retrieve")},
				"required":   []string{"prd_id"},
			},
		},
		{
			Name:        ToolStore,
			Description: "Store a new PRD as markdown and HTML. Requires user confirmation before saving.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"product_name": str("Name of the product"),
					"content":      str("Full PRD content in markdown format"),
					"author":       str("Author of the PRD"),
					"version":      str("Document version"),
					"metadata": map[string]any{
						"type":        "object",
						"description": "Additional string metadata for the PRD",
					},
				},
				"required": []string{"product_name", "content"},
			},
		},
	}
}

// TextResult wraps v as indented JSON text content.
func TextResult(v any) (Response, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return Response{}, err
	}
	return Response{Content: []Content{{Type: "text", Text: string(b)}}}, nil
}

// Errorf builds an error response.
func Errorf(code, format string, args ...any) Response {
	return Response{Error: fmt.Sprintf(format, args...), Code: code}
}

// EncodeFrame renders resp as one SSE frame: "data: <json>\n\n".
func EncodeFrame(resp Response) ([]byte, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(b) + 8)
	buf.WriteString("data: ")
	buf.Write(b)
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}

// DecodeFrame parses the first data frame of an SSE body. Multi-line data fields are joined with newlines.
func DecodeFrame(body []byte) (Response, error) {
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var data []string
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			if len(data) > 0 {
				break
			}
			continue
		}
		if v, ok := strings.CutPrefix(line, "data:"); ok {
			data = append(data, strings.TrimPrefix(v, " "))
		}
	}
	if err := sc.Err(); err != nil {
		return Response{}, err
	}
	if len(data) == 0 {
		return Response{}, ErrNoFrame
	}

	var resp Response
	if err := json.Unmarshal([]byte(strings.Join(data, "\n")), &resp); err != nil {
		return Response{}, fmt.Errorf("mcp: decode frame: %w", err)
	}
	return resp, nil
}

// Text returns the text of the first content item.
func (r Response) Text() (string, bool) {
	if len(r.Content) == 0 {
		return "", false
	}
	return r.Content[0].Text, true
}
