package retrieval

import (
	"context"
	"fmt"

	"github.com/poiesic/adsight/core"
	"github.com/tmc/langchaingo/schema"
)

// IDKey is the document metadata key holding a chunk's identifier.
const IDKey = "id"

type schemaRetriever struct {
	r schema.Retriever
}

// FromSchema adapts a langchaingo retriever, such as one built with
// vectorstores.ToRetriever, to Retriever.
func FromSchema(r schema.Retriever) Retriever {
	return &schemaRetriever{r: r}
}

func (s *schemaRetriever) Retrieve(ctx context.Context, query string) ([]core.Chunk, error) {
	docs, err := s.r.GetRelevantDocuments(ctx, query)
	if err != nil {
		return nil, err
	}
	return ChunksFromDocuments(docs), nil
}

// ChunksFromDocuments converts documents to chunks, preserving order.
// The chunk ID is taken from the IDKey metadata entry when present.
func ChunksFromDocuments(docs []schema.Document) []core.Chunk {
	chunks := make([]core.Chunk, len(docs))
	for i, doc := range docs {
		chunks[i] = core.Chunk{
			Content:    doc.PageContent,
			Similarity: float64(doc.Score),
			Metadata:   doc.Metadata,
		}
		if id, ok := doc.Metadata[IDKey]; ok && id != nil {
			chunks[i].ID = fmt.Sprint(id)
		}
	}
	return chunks
}
