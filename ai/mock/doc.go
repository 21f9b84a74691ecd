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


// Package mock provides test doubles for the ai package interfaces.
//
// The mocks are deterministic and need no network access, making them
// suitable for unit tests of retrieval, indexing and answering code.
//
// # Usage
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	generator := mock.NewMockGenerator()
//	answer, _ := generator.Generate(ctx, prompt)
//	last := generator.LastPrompt()
//
// # Default Behavior
//
//   - MockEmbedder: Returns hashed bag-of-words unit vectors, so texts that
//     share words are closer under cosine similarity
//   - MockGenerator: Records each prompt and answers DefaultAnswer
//   - MockProvider: Aggregates mock embedder and generator
package mock
