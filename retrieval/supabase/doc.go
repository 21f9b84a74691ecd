// Package supabase retrieves ad-performance documents from a Supabase
// Postgres database through a pgvector similarity-search procedure.
//
// The procedure is called with named arguments:
//
//	match_documents_v2(query_embedding vector, match_count int, match_threshold float)
//
// and must return id, content, metadata and similarity columns.
package supabase
