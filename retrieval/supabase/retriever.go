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


package supabase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/adsight/ai"
	"github.com/poiesic/adsight/core"
)

var (
	// ErrNoData is returned when the similarity search returns no data at all.
	ErrNoData = errors.New("similarity search returned no data")
)

const (
	// MetadataID and MetadataSimilarity are the chunk metadata keys that
	// carry the record's identifier and score alongside its own metadata.
	MetadataID         = "id"
	MetadataSimilarity = "similarity"
)

// Retriever embeds a question and asks the remote store for similar documents.
type Retriever struct {
	embedder ai.Embedder
	matcher  Matcher
	config   *Config
	logger   *slog.Logger
}

// NewRetriever validates config and returns a retriever over matcher.
func NewRetriever(embedder ai.Embedder, matcher Matcher, config *Config) (*Retriever, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Retriever{
		embedder: embedder,
		matcher:  matcher,
		config:   config,
		logger:   slog.Default().With("component", "supabase-retriever"),
	}, nil
}

// Retrieve returns the matching chunks in the order the store ranked them.
// It fails with ErrNoData when the store returns nothing, and returns an
// empty slice when the store returns an empty result set.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]core.Chunk, error) {
	vector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	records, err := r.matcher.Match(ctx, vector, r.config.MatchCount, r.config.MatchThreshold)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", r.config.Function, err)
	}
	if records == nil {
		return nil, fmt.Errorf("call %s: %w", r.config.Function, ErrNoData)
	}

	r.logger.Debug("retriever response", "count", len(records), "records", records)

	chunks := make([]core.Chunk, len(records))
	for i, rec := range records {
		chunks[i] = toChunk(rec)
	}
	return chunks, nil
}

// toChunk copies the record's metadata and adds its id and similarity.
// Keys already present in the record's metadata take precedence.
func toChunk(rec Record) core.Chunk {
	meta := make(map[string]any, len(rec.Metadata)+2)
	meta[MetadataID] = rec.ID
	meta[MetadataSimilarity] = rec.Similarity
	for k, v := range rec.Metadata {
		meta[k] = v
	}
	return core.Chunk{
		ID:         rec.ID,
		Content:    rec.Content,
		Similarity: rec.Similarity,
		Metadata:   meta,
	}
}
