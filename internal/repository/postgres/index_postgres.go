package postgres

import (
	"context"
	"database/sql"

	"prdapi/internal/model"
	"prdapi/internal/repository"
)

// IndexPostgres is a PostgreSQL full-text implementation of repository.IndexRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type IndexPostgres struct {
	db *sql.DB
}

// NewIndexPostgres creates a new IndexPostgres repository.
func NewIndexPostgres(db *sql.DB) *IndexPostgres {
	return &IndexPostgres{db: db}
}

var _ repository.IndexRepository = (*IndexPostgres)(nil)

// Search ranks rows against a websearch-style query.
func (r *IndexPostgres) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	const q = `
		SELECT prd_id, product_name, summary,
		       ts_headline('english', body, q, 'MaxFragments=1, MaxWords=30, MinWords=10') AS snippet,
		       created_at,
		       ts_rank(document, q) AS score
		FROM prd_index, websearch_to_tsquery('english', $1) AS q
		WHERE document @@ q
		ORDER BY score DESC, created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, q, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.SearchResult, 0)
	for rows.Next() {
		var res model.SearchResult
		if err := rows.Scan(
			&res.ID,
			&res.ProductName,
			&res.Summary,
			&res.Snippet,
			&res.CreatedAt,
			&res.Score,
		); err != nil {
			return nil, err
		}
		items = append(items, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Upsert inserts a row or refreshes it when the document was indexed before.
func (r *IndexPostgres) Upsert(ctx context.Context, e model.IndexEntry) error {
	const q = `
		INSERT INTO prd_index (prd_id, product_name, summary, body, html_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (prd_id) DO UPDATE SET
			product_name = EXCLUDED.product_name,
			summary      = EXCLUDED.summary,
			body         = EXCLUDED.body,
			html_path    = EXCLUDED.html_path,
			created_at   = EXCLUDED.created_at,
			indexed_at   = now()
	`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		e.ProductName,
		e.Summary,
		e.Body,
		e.HTMLPath,
		e.CreatedAt,
	)
	return err
}

// IndexedIDs lists every identifier already in the index.
func (r *IndexPostgres) IndexedIDs(ctx context.Context) (map[string]struct{}, error) {
	const q = `SELECT prd_id FROM prd_index`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *IndexPostgres) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
