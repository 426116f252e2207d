// Package markdown renders stored markdown into the standalone HTML rendition.
package markdown

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

const page = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>%s</title>
    <style>
        body {
            font-family: sans-serif;
            line-height: 1.6;
            max-width: 800px;
            margin: auto;
            padding: 20px;
        }
        h1, h2, h3 {
            color: #333;
        }
        code {
            background-color: #f4f4f4;
            padding: 2px 6px;
            border-radius: 3px;
        }
        pre {
            background-color: #f4f4f4;
            padding: 10px;
            border-radius: 5px;
            overflow-x: auto;
        }
        table {
            border-collapse: collapse;
        }
        th, td {
            border: 1px solid #ddd;
            padding: 6px 10px;
        }
    </style>
</head>
<body>
%s</body>
</html>
`

// Renderer converts markdown to a complete HTML document. It holds no per-call state
// and is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds a renderer with GitHub-flavoured extensions and hard line breaks.
// Raw HTML embedded in the markdown is omitted from the output.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
	}
}

// Body renders only the HTML fragment for content.
func (r *Renderer) Body(content string) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(content), &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	return buf.Bytes(), nil
}

// Render returns the standalone page. The escaped title is the only input besides content.
func (r *Renderer) Render(title, content string) ([]byte, error) {
	body, err := r.Body(content)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf(page, html.EscapeString(title), body)), nil
}
