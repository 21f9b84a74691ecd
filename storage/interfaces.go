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


package storage

import (
	"context"
	"time"

	"github.com/poiesic/adsight/core"
)

// ExchangeRepository is the question-and-answer journal.
// Exchanges are append-only: there is no update operation.
type ExchangeRepository interface {
	// AddExchange validates and stores an exchange.
	// The ID is always assigned from a sequence; AskedAt is set to the
	// current time if zero. Returns the stored exchange.
	AddExchange(ctx context.Context, exchange *core.Exchange) (*core.Exchange, error)

	// GetExchange retrieves a single exchange by ID.
	// Returns ErrNotFound if the exchange doesn't exist.
	GetExchange(ctx context.Context, id core.ID) (*core.Exchange, error)

	// RecentExchanges returns up to limit exchanges, most recent first.
	RecentExchanges(ctx context.Context, limit int) ([]*core.Exchange, error)

	// ExchangesByDateRange returns exchanges where start <= AskedAt < end,
	// oldest first.
	ExchangesByDateRange(ctx context.Context, start, end time.Time) ([]*core.Exchange, error)

	// DeleteExchanges removes exchanges by ID.
	// Returns ErrNotFound if any exchange doesn't exist.
	DeleteExchanges(ctx context.Context, ids ...core.ID) error

	// Close releases resources held by the repository.
	Close() error
}
