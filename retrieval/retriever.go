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


package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/poiesic/adsight/core"
)

var (
	// ErrInvalidPolicy is returned when a policy name is not recognized.
	ErrInvalidPolicy = errors.New("invalid retrieval failure policy")
)

// Retriever returns the chunks relevant to a query, most relevant first.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]core.Chunk, error)
}

// Func adapts an ordinary function to the Retriever interface.
type Func func(ctx context.Context, query string) ([]core.Chunk, error)

// Retrieve calls f.
func (f Func) Retrieve(ctx context.Context, query string) ([]core.Chunk, error) {
	return f(ctx, query)
}

// Policy decides what happens when retrieval fails.
type Policy int

const (
	// PolicyDegrade logs the failure and answers with an empty context.
	PolicyDegrade Policy = iota
	// PolicyFail returns the failure to the caller.
	PolicyFail
)

func (p Policy) String() string {
	switch p {
	case PolicyDegrade:
		return "degrade"
	case PolicyFail:
		return "fail"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy converts "degrade" or "fail" (case-insensitive) to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "degrade":
		return PolicyDegrade, nil
	case "fail":
		return PolicyFail, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
}
