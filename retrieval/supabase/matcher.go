package supabase

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Record is one row returned by the similarity-search procedure.
type Record struct {
	ID         string
	Content    string
	Metadata   map[string]any
	Similarity float64
}

// Matcher runs a similarity search against stored document embeddings.
// A nil slice with a nil error means the backend returned no data at all,
// which is distinct from an empty result set.
type Matcher interface {
	Match(ctx context.Context, embedding []float32, count int, threshold float64) ([]Record, error)
}

// PostgresMatcher calls the similarity-search procedure over a pgx pool.
type PostgresMatcher struct {
	pool  *pgxpool.Pool
	query string
}

// NewPostgresMatcher connects to dsn and verifies the connection.
func NewPostgresMatcher(ctx context.Context, dsn, function string) (*PostgresMatcher, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresMatcher{
		pool:  pool,
		query: matchQuery(function),
	}, nil
}

// matchQuery builds the call for a possibly schema-qualified function name.
func matchQuery(function string) string {
	name := pgx.Identifier(strings.Split(function, ".")).Sanitize()
	return fmt.Sprintf(`SELECT id::text, coalesce(content, ''), coalesce(metadata::jsonb, '{}'::jsonb), similarity::float8
		FROM %s(query_embedding => $1, match_count => $2, match_threshold => $3)`, name)
}

// Match returns the records in the order the procedure produced them.
// An empty result set yields an empty, non-nil slice.
func (m *PostgresMatcher) Match(ctx context.Context, embedding []float32, count int, threshold float64) ([]Record, error) {
	vector := pgvector.NewVector(embedding)

	rows, err := m.pool.Query(ctx, m.query, vector, count, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]Record, 0, count)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Content, &rec.Metadata, &rec.Similarity); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Close releases the connection pool.
func (m *PostgresMatcher) Close() {
	m.pool.Close()
}
