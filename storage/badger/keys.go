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
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/adsight/core"
)

const (
	exchangePrefix     = "exch"
	exchangeDatePrefix = "exchd"
	exchangeIDSeq      = "exchseq"
)

// makeExchangeKey generates a key for an exchange by ID.
func makeExchangeKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", exchangePrefix, id))
}

// makeExchangeDateKey generates a composite key for the recency index.
// Format: prefix:timestamp:id
func makeExchangeDateKey(askedAt time.Time, id core.ID) []byte {
	buf := makePartialExchangeDateKey(askedAt)
	return binary.BigEndian.AppendUint64(buf, uint64(id))
}

// makePartialExchangeDateKey generates a partial key for date range queries.
// Big-endian microseconds keep lexicographic and chronological order equal.
// Format: prefix:timestamp
func makePartialExchangeDateKey(askedAt time.Time) []byte {
	prefix := exchangeDatePrefix + ":"
	buf := make([]byte, len(prefix), len(prefix)+16)
	copy(buf, prefix)
	return binary.BigEndian.AppendUint64(buf, uint64(askedAt.UnixMicro()))
}

// exchangeDatePrefixBytes is the common prefix of every recency index key.
func exchangeDatePrefixBytes() []byte {
	return []byte(exchangeDatePrefix + ":")
}
