// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"

	"github.com/poiesic/adsight/ai"
	"github.com/poiesic/adsight/core"
	"github.com/poiesic/adsight/retrieval"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

var _ vectorstores.VectorStore = (*Index)(nil)

var (
	// ErrImmutable is returned by AddDocuments; an Index never changes after Build.
	ErrImmutable = errors.New("index is immutable")
	// ErrEmbeddingMismatch is returned when the embedder returns the wrong number of vectors.
	ErrEmbeddingMismatch = errors.New("embedding count does not match chunk count")
)

type entry struct {
	doc    schema.Document
	vector []float32
}

// Index is an in-memory nearest-neighbour index over embedded chunks.
// It is safe for concurrent reads.
type Index struct {
	embedder ai.Embedder
	entries  []entry
	topK     int
	logger   *slog.Logger
}

// Build embeds every document and returns the finished index.
func Build(ctx context.Context, embedder ai.Embedder, docs []schema.Document, cfg *Config) (*Index, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	idx := &Index{
		embedder: embedder,
		entries:  make([]entry, len(docs)),
		topK:     cfg.TopK,
		logger:   slog.Default().With("component", "local-index"),
	}
	if len(docs) == 0 {
		idx.logger.Warn("building empty index")
		return idx, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		if err := core.ValidateChunk(&core.Chunk{Content: d.PageContent}); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		texts[i] = d.PageContent
	}

	vectors, err := embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("%w: %d vectors for %d chunks", ErrEmbeddingMismatch, len(vectors), len(docs))
	}

	for i, d := range docs {
		idx.entries[i] = entry{doc: d, vector: vectors[i]}
	}
	idx.logger.Info("index built", "chunks", len(docs))
	return idx, nil
}

// Ingest splits the JSON file at path and builds an index over its chunks.
// Running it twice on the same file and config gives identical chunks.
func Ingest(ctx context.Context, path string, embedder ai.Embedder, cfg *Config) (*Index, error) {
	docs, err := Split(path, cfg)
	if err != nil {
		return nil, err
	}
	return Build(ctx, embedder, docs, cfg)
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Documents returns the indexed chunks in insertion order.
func (idx *Index) Documents() []schema.Document {
	docs := make([]schema.Document, len(idx.entries))
	for i, e := range idx.entries {
		docs[i] = e.doc
	}
	return docs
}

// AddDocuments always fails with ErrImmutable.
func (idx *Index) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	return nil, ErrImmutable
}

// SimilaritySearch embeds query and returns up to numDocuments chunks by
// descending cosine similarity. Equal scores keep chunk order. A positive
// score threshold option drops chunks scoring below it.
func (idx *Index) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	var opts vectorstores.Options
	for _, opt := range options {
		opt(&opts)
	}

	if numDocuments <= 0 || len(idx.entries) == 0 {
		return []schema.Document{}, nil
	}

	q, err := idx.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	type scored struct {
		pos   int
		score float64
	}
	results := make([]scored, 0, len(idx.entries))
	for i, e := range idx.entries {
		s := cosine(q, e.vector)
		if opts.ScoreThreshold > 0 && s < float64(opts.ScoreThreshold) {
			continue
		}
		results = append(results, scored{pos: i, score: s})
	}
	slices.SortStableFunc(results, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})
	if len(results) > numDocuments {
		results = results[:numDocuments]
	}

	docs := make([]schema.Document, len(results))
	for i, r := range results {
		d := idx.entries[r.pos].doc
		docs[i] = schema.Document{
			PageContent: d.PageContent,
			Metadata:    maps.Clone(d.Metadata),
			Score:       float32(r.score),
		}
	}
	idx.logger.Debug("similarity search", "matches", len(docs), "requested", numDocuments)
	return docs, nil
}

// Retriever returns a retrieval.Retriever yielding the index's top K chunks.
func (idx *Index) Retriever() retrieval.Retriever {
	return retrieval.FromSchema(vectorstores.ToRetriever(idx, idx.topK))
}

// cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector or their lengths differ.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
