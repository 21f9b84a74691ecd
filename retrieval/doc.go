// Package retrieval defines how adsight finds context for a question.
//
// A Retriever maps a question to an ordered slice of core.Chunk values.
// Implementations live in retrieval/supabase (remote vector database) and
// index (local in-memory index, adapted through FromSchema). Policy
// describes how a retrieval failure is treated by the answering chain.
package retrieval
