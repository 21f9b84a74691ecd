// Package index builds a local, in-memory vector index from a JSON export
// of ad-account data.
//
// The export is re-serialized to compact JSON, cut into overlapping
// fixed-size rune windows, embedded once and kept read-only. Index
// implements the langchaingo vectorstores.VectorStore interface, so it can
// be turned into a retriever with vectorstores.ToRetriever.
//
//	idx, err := index.Ingest(ctx, "ads.json", embedder, index.DefaultConfig())
//	chunks, err := idx.Retriever().Retrieve(ctx, "Ad with the highest impressions")
package index
