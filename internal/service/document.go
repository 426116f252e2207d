package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"prdapi/internal/markdown"
	"prdapi/internal/metrics"
	"prdapi/internal/model"
	"prdapi/internal/repository"
	"prdapi/internal/storage"
)

var (
	ErrValidation = errors.New("validation error")
	ErrRender     = errors.New("render failed")
	ErrNotFound   = errors.New("document not found")
	ErrBackend    = errors.New("backend unavailable")
)

const (
	contentTypeMarkdown = "text/markdown; charset=utf-8"
	contentTypeHTML     = "text/html; charset=utf-8"

	defaultMaxResults = 5
	maxIDAttempts     = 5
	snippetMaxRunes   = 200
	cleanupTimeout    = 10 * time.Second
)

// DocumentService defines the document use cases.
type DocumentService interface {
	// Search returns documents matching query. It degrades to an object-store scan when the
	// index fails and never reports an error for that reason.
	Search(ctx context.Context, query string) (*model.SearchResponse, error)

	// Get returns the markdown content and metadata of a document.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Store writes the markdown and HTML renditions of a new document.
	// If the HTML write fails the markdown object is removed again.
	Store(ctx context.Context, in model.StoreInput) (*model.StoreResult, error)
}

// Options tunes the document service.
type Options struct {
	Prefix     string
	MaxResults int
	// ShareURLTTL > 0 makes html_url a presigned link instead of the public object address.
	ShareURLTTL time.Duration
}

type pageRenderer interface {
	Render(title, content string) ([]byte, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store    storage.Storage
	index    repository.IndexRepository
	renderer pageRenderer
	ids      *IDGenerator
	metrics  *metrics.Metrics
	log      zerolog.Logger
	layout   Layout
	opts     Options
	now      func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, index repository.IndexRepository, m *metrics.Metrics, log zerolog.Logger, opts Options) DocumentService {
	if opts.MaxResults <= 0 {
		opts.MaxResults = defaultMaxResults
	}
	return &documentService{
		store:    store,
		index:    index,
		renderer: markdown.NewRenderer(),
		ids:      NewIDGenerator(),
		metrics:  m,
		log:      log.With().Str("component", "document_service").Logger(),
		layout:   Layout{Prefix: opts.Prefix},
		opts:     opts,
		now:      time.Now,
	}
}

func (s *documentService) Search(ctx context.Context, query string) (*model.SearchResponse, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("%w: query is required", ErrValidation)
	}

	path := metrics.PathIndex
	results, err := s.index.Search(ctx, q, s.opts.MaxResults)
	if err != nil {
		s.log.Warn().
			Str("event", "search_fallback").
			Str("query", q).
			Err(err).
			Msg("search index unavailable, falling back to object store scan")
		s.metrics.Fallbacks.Inc()
		path = metrics.PathFallback
		results = s.fallbackSearch(ctx, q)
	}
	s.metrics.Searches.WithLabelValues(path).Inc()

	if results == nil {
		results = []model.SearchResult{}
	}
	return &model.SearchResponse{Query: query, Count: len(results), Results: results}, nil
}

// fallbackSearch matches the query against stored names and summaries in listing order.
// Listing failures yield no results.
func (s *documentService) fallbackSearch(ctx context.Context, q string) []model.SearchResult {
	results := make([]model.SearchResult, 0)

	objects, err := s.store.List(ctx, s.layout.ListPrefix())
	if err != nil {
		s.log.Error().Str("event", "fallback_list_failed").Err(err).Msg("fallback search could not list documents")
		return results
	}

	needle := strings.ToLower(q)
	for _, obj := range objects {
		id, ok := s.layout.ID(obj.Key, ExtMarkdown)
		if !ok {
			continue
		}
		info, err := s.store.Stat(ctx, obj.Key)
		if err != nil {
			s.log.Debug().Str("key", obj.Key).Err(err).Msg("skipping unreadable document")
			continue
		}
		doc := DocumentFromObject(id, info)
		if !strings.Contains(strings.ToLower(doc.ProductName), needle) &&
			!strings.Contains(strings.ToLower(doc.Summary), needle) {
			continue
		}
		results = append(results, model.SearchResult{
			ID:          doc.ID,
			ProductName: doc.ProductName,
			Summary:     doc.Summary,
			Snippet:     truncate(doc.Summary, snippetMaxRunes, ""),
			CreatedAt:   doc.CreatedAt,
			Score:       1.0,
		})
		if len(results) >= s.opts.MaxResults {
			break
		}
	}
	return results
}

func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	key := s.layout.MarkdownKey(id)
	rc, info, err := s.store.Get(ctx, key)
	if err != nil {
		if storage.IsNotFound(err) {
			s.metrics.Gets.WithLabelValues("not_found").Inc()
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		s.metrics.Gets.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: get %s: %w", ErrBackend, key, err)
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		s.metrics.Gets.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: read %s: %w", ErrBackend, key, err)
	}

	doc := DocumentFromObject(id, info)
	doc.Content = string(body)
	doc.Path = s.store.URI(key)
	doc.HTMLPath = s.store.URI(s.layout.HTMLKey(id))
	s.metrics.Gets.WithLabelValues("found").Inc()
	return &doc, nil
}

func (s *documentService) Store(ctx context.Context, in model.StoreInput) (*model.StoreResult, error) {
	name := strings.TrimSpace(in.ProductName)
	if name == "" {
		return nil, fmt.Errorf("%w: product_name is required", ErrValidation)
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}
	extra, err := normalizeMetadata(in.Metadata)
	if err != nil {
		return nil, err
	}
	in.Metadata = extra

	page, err := s.renderer.Render(name, in.Content)
	if err != nil {
		s.metrics.Stores.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("%w: render %q: %w", ErrRender, name, err)
	}

	id, err := s.allocateID(ctx, name)
	if err != nil {
		s.metrics.Stores.WithLabelValues("failure").Inc()
		return nil, err
	}

	createdAt := s.now().UTC()
	summary := ExtractSummary(in.Content)
	md := buildMetadata(id, in, name, summary, createdAt)
	mdKey := s.layout.MarkdownKey(id)
	htmlKey := s.layout.HTMLKey(id)

	if _, err := s.store.Put(ctx, mdKey, strings.NewReader(in.Content), storage.PutObjectOptions{
		Size:        int64(len(in.Content)),
		ContentType: contentTypeMarkdown,
		Metadata:    md,
	}); err != nil {
		s.metrics.Stores.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("%w: upload markdown: %w", ErrBackend, err)
	}

	if _, err := s.store.Put(ctx, htmlKey, bytes.NewReader(page), storage.PutObjectOptions{
		Size:        int64(len(page)),
		ContentType: contentTypeHTML,
		Metadata:    md,
	}); err != nil {
		s.metrics.Stores.WithLabelValues("failure").Inc()
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		if delErr := s.store.Delete(cleanupCtx, mdKey); delErr != nil {
			s.log.Error().Str("event", "store_cleanup_failed").Str("key", mdKey).Err(delErr).Msg("orphaned markdown object")
			return nil, fmt.Errorf("%w: upload html: %v; cleanup delete failed: %v", ErrBackend, err, delErr)
		}
		return nil, fmt.Errorf("%w: upload html: %w", ErrBackend, err)
	}

	s.metrics.Stores.WithLabelValues("success").Inc()
	s.log.Info().
		Str("event", "document_stored").
		Str("prd_id", id).
		Str("product_name", name).
		Msg("document stored")

	return &model.StoreResult{
		ID:           id,
		MarkdownPath: s.store.URI(mdKey),
		HTMLPath:     s.store.URI(htmlKey),
		HTMLURL:      s.shareURL(ctx, htmlKey),
		ProductName:  name,
		CreatedAt:    createdAt,
		Summary:      summary,
		Author:       in.Author,
		Version:      in.Version,
	}, nil
}

// allocateID draws identifiers until one is unused in the object store.
func (s *documentService) allocateID(ctx context.Context, name string) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := s.ids.Next(name)
		_, err := s.store.Stat(ctx, s.layout.MarkdownKey(id))
		if storage.IsNotFound(err) {
			return id, nil
		}
		if err != nil {
			return "", fmt.Errorf("%w: check identifier: %w", ErrBackend, err)
		}
		s.log.Warn().Str("event", "id_collision").Str("prd_id", id).Msg("identifier already taken, retrying")
	}
	return "", fmt.Errorf("%w: no free identifier for %q after %d attempts", ErrBackend, name, maxIDAttempts)
}

func (s *documentService) shareURL(ctx context.Context, key string) string {
	if s.opts.ShareURLTTL > 0 {
		u, err := s.store.PresignGet(ctx, key, s.opts.ShareURLTTL)
		if err == nil {
			return u
		}
		s.log.Warn().Str("key", key).Err(err).Msg("presign failed, returning public url")
	}
	return s.store.PublicURL(key)
}
