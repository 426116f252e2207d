package indexer

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Text is the readable content of an HTML page.
type Text struct {
	Title string
	Body  string
}

// ExtractText walks an HTML document and collects its title and visible body text.
// Script and style elements are skipped.
func ExtractText(r io.Reader) (Text, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Text{}, err
	}

	var (
		out   Text
		words []string
		walk  func(n *html.Node, inBody bool)
	)
	walk = func(n *html.Node, inBody bool) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			case atom.Title:
				if n.FirstChild != nil && out.Title == "" {
					out.Title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			case atom.Body:
				inBody = true
			}
		}
		if n.Type == html.TextNode && inBody {
			words = append(words, strings.Fields(n.Data)...)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inBody)
		}
	}
	walk(doc, false)

	out.Body = strings.Join(words, " ")
	return out, nil
}
