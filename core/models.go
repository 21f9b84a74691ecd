package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Hex renders the ID as a fixed-width hexadecimal string.
func (id ID) Hex() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// Pipeline names the retrieval backend that produced an answer.
type Pipeline string

const (
	// PipelineRemote retrieves through the hosted similarity-search procedure.
	PipelineRemote Pipeline = "remote"
	// PipelineLocal retrieves from the in-memory index built from a JSON export.
	PipelineLocal Pipeline = "local"
)

// Chunk is a unit of retrievable text returned by a retriever.
// Chunks are ephemeral: they are fetched or recreated for every question.
type Chunk struct {
	ID         string
	Content    string
	Similarity float64        // Similarity to the query as reported by the retriever
	Metadata   map[string]any // Arbitrary attributes (campaign fields, offsets, source)
}

// Exchange is a journal entry for one answered question.
type Exchange struct {
	Id       ID
	Pipeline Pipeline
	Question string
	Answer   string
	ChunkIDs []string  // IDs of the chunks placed into the prompt, in order
	Degraded bool      // Retrieval failed and the answer was generated without context
	AskedAt  time.Time // When the question was asked
}
