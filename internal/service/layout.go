package service

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"prdapi/internal/model"
	"prdapi/internal/storage"
)

// Object metadata keys shared by both renditions of a document.
const (
	MetaID          = "prd-id"
	MetaProductName = "product-name"
	MetaCreatedAt   = "created-at"
	MetaSummary     = "summary"
	MetaAuthor      = "author"
	MetaVersion     = "version"

	ExtMarkdown = ".md"
	ExtHTML     = ".html"

	unknownProduct = "Unknown"
)

var metaKey = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Layout maps document identifiers to object keys: <prefix>/<id>.md and <prefix>/<id>.html.
type Layout struct {
	Prefix string
}

func (l Layout) key(id, ext string) string {
	if l.Prefix == "" {
		return id + ext
	}
	return l.Prefix + "/" + id + ext
}

// MarkdownKey is the object key of the markdown rendition.
func (l Layout) MarkdownKey(id string) string { return l.key(id, ExtMarkdown) }

// HTMLKey is the object key of the HTML rendition.
func (l Layout) HTMLKey(id string) string { return l.key(id, ExtHTML) }

// ListPrefix is the prefix every document object lives under.
func (l Layout) ListPrefix() string {
	if l.Prefix == "" {
		return ""
	}
	return l.Prefix + "/"
}

// ID extracts the document identifier from key if it carries the given extension.
func (l Layout) ID(key, ext string) (string, bool) {
	if !strings.HasPrefix(key, l.ListPrefix()) || !strings.HasSuffix(key, ext) {
		return "", false
	}
	id := strings.TrimSuffix(path.Base(key), ext)
	return id, id != ""
}

// DocumentFromObject rebuilds document attributes from stored object metadata.
// Content and Path are left for the caller.
func DocumentFromObject(id string, info storage.ObjectInfo) model.Document {
	md := info.Metadata
	doc := model.Document{
		ID:          id,
		ProductName: md[MetaProductName],
		Summary:     md[MetaSummary],
		Author:      md[MetaAuthor],
		Version:     md[MetaVersion],
		CreatedAt:   info.LastModified.UTC(),
	}
	if v := md[MetaID]; v != "" {
		doc.ID = v
	}
	if doc.ProductName == "" {
		doc.ProductName = unknownProduct
	}
	if ts, err := time.Parse(time.RFC3339Nano, md[MetaCreatedAt]); err == nil {
		doc.CreatedAt = ts.UTC()
	}

	extra := make(map[string]string)
	for k, v := range md {
		switch k {
		case MetaID, MetaProductName, MetaCreatedAt, MetaSummary, MetaAuthor, MetaVersion:
		default:
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		doc.Metadata = extra
	}
	return doc
}

// normalizeMetadata lowercases caller keys and rejects any key object stores cannot carry as a header.
func normalizeMetadata(in map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for k, v := range in {
		nk := strings.ToLower(strings.TrimSpace(k))
		if !metaKey.MatchString(nk) {
			return nil, fmt.Errorf("%w: invalid metadata key %q", ErrValidation, k)
		}
		out[nk] = v
	}
	return out, nil
}

// buildMetadata merges normalized caller metadata with the document's own keys, which always win.
func buildMetadata(id string, in model.StoreInput, name, summary string, createdAt time.Time) map[string]string {
	md := make(map[string]string, len(in.Metadata)+6)
	for k, v := range in.Metadata {
		md[k] = v
	}
	md[MetaID] = id
	md[MetaProductName] = name
	md[MetaCreatedAt] = createdAt.Format(time.RFC3339Nano)
	md[MetaSummary] = summary
	md[MetaAuthor] = in.Author
	md[MetaVersion] = in.Version
	return md
}
