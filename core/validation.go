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


package core

import (
	"fmt"
	"time"
)

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//
// NOT validated:
//   - ID (the remote store may omit it)
//   - Similarity (scale depends on the retriever)
//   - Metadata (free-form)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	return nil
}

// ValidateExchange validates an Exchange according to domain rules.
//
// Validation rules:
//   - Question must not be empty
//   - Pipeline must be remote or local
//   - AskedAt must not be in the future
//
// An empty Answer is valid: the hosted model may return nothing.
func ValidateExchange(exchange *Exchange) error {
	if exchange == nil {
		return fmt.Errorf("%w: exchange is nil", ErrInvalidExchange)
	}

	if exchange.Question == "" {
		return fmt.Errorf("%w: %w", ErrInvalidExchange, ErrEmptyQuestion)
	}

	if err := ValidatePipeline(exchange.Pipeline); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidExchange, err)
	}

	if !IsValidTimestamp(exchange.AskedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidExchange, ErrInvalidTimestamp)
	}

	return nil
}

// ValidatePipeline validates that a Pipeline has a known value.
func ValidatePipeline(p Pipeline) error {
	if p != PipelineRemote && p != PipelineLocal {
		return fmt.Errorf("%w: %q", ErrInvalidPipeline, p)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
