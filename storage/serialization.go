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
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/adsight/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	return core.ID(v), nil
}

// exchangeSize returns the encoded size of e.
// Field order: Id, Pipeline, Question, Answer, ChunkIDs, Degraded, AskedAt.
func exchangeSize(e *core.Exchange) int {
	n := varint.Uint64.Size(uint64(e.Id))
	n += ord.String.Size(string(e.Pipeline))
	n += ord.String.Size(e.Question)
	n += ord.String.Size(e.Answer)
	n += varint.Int.Size(len(e.ChunkIDs))
	for _, id := range e.ChunkIDs {
		n += ord.String.Size(id)
	}
	n += ord.Bool.Size(e.Degraded)
	n += varint.Int64.Size(e.AskedAt.UnixMicro())
	return n
}

// MarshalExchange serializes an Exchange to bytes.
// AskedAt is stored with microsecond precision in UTC.
func MarshalExchange(e *core.Exchange) []byte {
	buf := make([]byte, exchangeSize(e))
	n := varint.Uint64.Marshal(uint64(e.Id), buf)
	n += ord.String.Marshal(string(e.Pipeline), buf[n:])
	n += ord.String.Marshal(e.Question, buf[n:])
	n += ord.String.Marshal(e.Answer, buf[n:])
	n += varint.Int.Marshal(len(e.ChunkIDs), buf[n:])
	for _, id := range e.ChunkIDs {
		n += ord.String.Marshal(id, buf[n:])
	}
	n += ord.Bool.Marshal(e.Degraded, buf[n:])
	varint.Int64.Marshal(e.AskedAt.UnixMicro(), buf[n:])
	return buf
}

// UnmarshalExchange deserializes an Exchange from bytes.
func UnmarshalExchange(data []byte) (*core.Exchange, error) {
	var (
		e   core.Exchange
		n   int
		err error
	)
	fail := func(field string, err error) (*core.Exchange, error) {
		return nil, fmt.Errorf("%w: exchange %s: %w", ErrSerializationFailed, field, err)
	}

	id, m, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return fail("id", err)
	}
	e.Id = core.ID(id)
	n += m

	pipeline, m, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return fail("pipeline", err)
	}
	e.Pipeline = core.Pipeline(pipeline)
	n += m

	if e.Question, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return fail("question", err)
	}
	n += m

	if e.Answer, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return fail("answer", err)
	}
	n += m

	count, m, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return fail("chunk count", err)
	}
	n += m
	if count < 0 || count > len(data)-n {
		return fail("chunk count", ErrTruncatedData)
	}
	if count > 0 {
		e.ChunkIDs = make([]string, count)
		for i := range e.ChunkIDs {
			if e.ChunkIDs[i], m, err = ord.String.Unmarshal(data[n:]); err != nil {
				return fail("chunk id", err)
			}
			n += m
		}
	}

	if e.Degraded, m, err = ord.Bool.Unmarshal(data[n:]); err != nil {
		return fail("degraded", err)
	}
	n += m

	micros, _, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return fail("asked at", err)
	}
	e.AskedAt = time.UnixMicro(micros).UTC()

	return &e, nil
}
