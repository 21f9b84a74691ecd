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


package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/adsight/core"
	"github.com/poiesic/adsight/storage"
)

// ExchangeRepository implements storage.ExchangeRepository using BadgerDB.
type ExchangeRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ExchangeRepository = (*ExchangeRepository)(nil)

// newExchangeRepository returns the concrete repository.
func newExchangeRepository(backend *Backend) (*ExchangeRepository, error) {
	idSeq, err := backend.GetSequence(exchangeIDSeq)
	if err != nil {
		return nil, err
	}

	return &ExchangeRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// NewExchangeRepository creates a journal over backend.
// The caller still owns backend and must close it after the repository.
func NewExchangeRepository(backend *Backend) (storage.ExchangeRepository, error) {
	return newExchangeRepository(backend)
}

// Close releases the ID sequence.
func (r *ExchangeRepository) Close() error {
	return r.idSeq.Release()
}

func (r *ExchangeRepository) nextID() (core.ID, error) {
	next, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if next == 0 {
		if next, err = r.idSeq.Next(); err != nil {
			return 0, err
		}
	}
	return core.ID(next), nil
}

// AddExchange stores exchange under a fresh ID and indexes it by AskedAt.
func (r *ExchangeRepository) AddExchange(ctx context.Context, exchange *core.Exchange) (*core.Exchange, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if exchange != nil && exchange.AskedAt.IsZero() {
		exchange.AskedAt = time.Now().UTC()
	}
	if err := core.ValidateExchange(exchange); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := r.nextID()
		if err != nil {
			return err
		}
		exchange.Id = id
		exchange.AskedAt = exchange.AskedAt.UTC().Truncate(time.Microsecond)

		if err := tx.Set(makeExchangeKey(exchange.Id), storage.MarshalExchange(exchange)); err != nil {
			return err
		}
		if err := tx.Set(makeExchangeDateKey(exchange.AskedAt, exchange.Id), storage.MarshalID(exchange.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	r.backend.logger.Debug("exchange recorded", "id", exchange.Id, "pipeline", exchange.Pipeline, "degraded", exchange.Degraded)
	return exchange, nil
}

// GetExchange retrieves a single exchange by ID.
func (r *ExchangeRepository) GetExchange(ctx context.Context, id core.ID) (*core.Exchange, error) {
	var result *core.Exchange
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readExchange(tx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// RecentExchanges returns up to limit exchanges, most recent first.
func (r *ExchangeRepository) RecentExchanges(ctx context.Context, limit int) ([]*core.Exchange, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", storage.ErrInvalidQuery, limit)
	}

	var results []*core.Exchange
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past the newest possible key and walk backwards
		prefix := exchangeDatePrefixBytes()
		seek := append(makePartialExchangeDateKey(time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)), 0xff)

		for iter.Seek(seek); iter.Valid() && len(results) < limit; iter.Next() {
			if !bytes.HasPrefix(iter.Item().Key(), prefix) {
				break
			}
			exchange, err := readIndexed(tx, iter.Item())
			if err != nil {
				return err
			}
			if exchange != nil {
				results = append(results, exchange)
			}
		}
		return nil
	}, false)

	return results, err
}

// ExchangesByDateRange returns exchanges with start <= AskedAt < end, oldest first.
func (r *ExchangeRepository) ExchangesByDateRange(ctx context.Context, start, end time.Time) ([]*core.Exchange, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s before start %s", storage.ErrInvalidQuery, end, start)
	}

	var results []*core.Exchange
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialExchangeDateKey(start)
		endKey := makePartialExchangeDateKey(end)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if !bytes.HasPrefix(key, exchangeDatePrefixBytes()) || slices.Compare(key, endKey) >= 0 {
				break
			}
			exchange, err := readIndexed(tx, iter.Item())
			if err != nil {
				return err
			}
			if exchange != nil {
				results = append(results, exchange)
			}
		}
		return nil
	}, false)

	return results, err
}

// DeleteExchanges removes exchanges and their index entries.
func (r *ExchangeRepository) DeleteExchanges(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			exchange, err := readExchange(tx, id)
			if err != nil {
				return err
			}
			if exchange == nil {
				return fmt.Errorf("%w: exchange %d", storage.ErrNotFound, id)
			}
			if err := tx.Delete(makeExchangeDateKey(exchange.AskedAt, id)); err != nil {
				return err
			}
			if err := tx.Delete(makeExchangeKey(id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// readExchange returns nil without error when id is absent.
func readExchange(tx *badger.Txn, id core.ID) (*core.Exchange, error) {
	item, err := tx.Get(makeExchangeKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var exchange *core.Exchange
	err = item.Value(func(val []byte) error {
		exchange, err = storage.UnmarshalExchange(val)
		return err
	})
	return exchange, err
}

// readIndexed resolves a recency index entry to its exchange.
func readIndexed(tx *badger.Txn, item *badger.Item) (*core.Exchange, error) {
	var id core.ID
	if err := item.Value(func(val []byte) error {
		var err error
		id, err = storage.UnmarshalID(val)
		return err
	}); err != nil {
		return nil, err
	}
	return readExchange(tx, id)
}
