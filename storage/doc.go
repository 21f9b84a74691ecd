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


// Package storage provides the storage abstraction for the adsight exchange journal.
//
// The journal records every answered question together with the chunks
// that were placed into its prompt and whether retrieval degraded. It is
// an append-only log used to find common questions; answering never
// depends on it.
//
// # Constructor Return Type Pattern
//
// Public constructors return interface types:
//
//	repo, err := badger.NewExchangeRepository(backend)  // returns storage.ExchangeRepository
//
// # Serialization
//
// Records are encoded with mus-go varint and ordinal serializers. Field
// order is fixed; changing it invalidates existing journals.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/journal", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	repo, err := badger.NewExchangeRepository(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
//	recent, err := repo.RecentExchanges(ctx, 10)
package storage
