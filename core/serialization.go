// Copyright 2026 Quarry Systems
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
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the core types persisted in the embedded backend.
// Field order is part of the stored format and must not change.
var (
	IDMUS       = idMUS{}
	DocumentMUS = documentMUS{}
	ChunkMUS    = chunkMUS{}
)

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

// timeMUS stores timestamps as UnixMicro, matching the precision the
// round-trip tests rely on.
type timeMUS struct{}

func (timeMUS) Marshal(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func (timeMUS) Unmarshal(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func (timeMUS) Size(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

type uuidMUS struct{}

func (uuidMUS) Marshal(id uuid.UUID, bs []byte) int {
	return ord.String.Marshal(id.String(), bs)
}

func (uuidMUS) Unmarshal(bs []byte) (uuid.UUID, int, error) {
	s, n, err := ord.String.Unmarshal(bs)
	if err != nil {
		return uuid.Nil, n, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, n, fmt.Errorf("invalid uuid %q: %w", s, err)
	}
	return id, n, nil
}

func (uuidMUS) Size(id uuid.UUID) int {
	return ord.String.Size(id.String())
}

type vectorMUS struct{}

func (vectorMUS) Marshal(v []float32, bs []byte) int {
	n := varint.PositiveInt.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func (vectorMUS) Unmarshal(bs []byte) ([]float32, int, error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v := make([]float32, length)
	for i := 0; i < length; i++ {
		f, fn, err := raw.Float32.Unmarshal(bs[n:])
		n += fn
		if err != nil {
			return nil, n, err
		}
		v[i] = f
	}
	return v, n, nil
}

func (vectorMUS) Size(v []float32) int {
	size := varint.PositiveInt.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

// metadataMUS writes map entries in sorted key order so identical maps
// always marshal to identical bytes.
type metadataMUS struct{}

func (metadataMUS) Marshal(m map[string]string, bs []byte) int {
	keys := sortedKeys(m)
	n := varint.PositiveInt.Marshal(len(keys), bs)
	for _, k := range keys {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(m[k], bs[n:])
	}
	return n
}

func (metadataMUS) Unmarshal(bs []byte) (map[string]string, int, error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	m := make(map[string]string, length)
	for i := 0; i < length; i++ {
		k, kn, err := ord.String.Unmarshal(bs[n:])
		n += kn
		if err != nil {
			return nil, n, err
		}
		v, vn, err := ord.String.Unmarshal(bs[n:])
		n += vn
		if err != nil {
			return nil, n, err
		}
		m[k] = v
	}
	return m, n, nil
}

func (metadataMUS) Size(m map[string]string) int {
	size := varint.PositiveInt.Size(len(m))
	for _, k := range sortedKeys(m) {
		size += ord.String.Size(k)
		size += ord.String.Size(m[k])
	}
	return size
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type documentMUS struct{}

func (documentMUS) Marshal(d Document, bs []byte) int {
	n := uuidMUS{}.Marshal(d.Id, bs)
	n += ord.String.Marshal(string(d.TenantID), bs[n:])
	n += ord.String.Marshal(d.Filename, bs[n:])
	n += ord.String.Marshal(d.MimeType, bs[n:])
	n += varint.Int64.Marshal(d.SizeBytes, bs[n:])
	n += varint.Int.Marshal(int(d.Status), bs[n:])
	n += varint.Int.Marshal(d.ChunkCount, bs[n:])
	n += varint.Int.Marshal(d.PageCount, bs[n:])
	n += timeMUS{}.Marshal(d.CreatedAt, bs[n:])
	n += timeMUS{}.Marshal(d.UpdatedAt, bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (Document, int, error) {
	var d Document
	var n int

	id, fn, err := uuidMUS{}.Unmarshal(bs)
	n += fn
	if err != nil {
		return d, n, err
	}
	d.Id = id

	tenant, fn, err := ord.String.Unmarshal(bs[n:])
	n += fn
	if err != nil {
		return d, n, err
	}
	d.TenantID = TenantID(tenant)

	d.Filename, fn, err = ord.String.Unmarshal(bs[n:])
	n += fn
	if err != nil {
		return d, n, err
	}

	d.MimeType, fn, err = ord.String.Unmarshal(bs[n:])
	n += fn
	if err != nil {
		return d, n, err
	}

	d.SizeBytes, fn, err = varint.Int64.Unmarshal(bs[n:])
	n += fn
	if err != nil {
		return d, n, err
	}

	status, fn, err := varint.Int.Unmarshal(bs[n:])
	n += fn
	if err != nil {
		return d, n, err
	}
	d.Status = UploadStatus(status)

	d.ChunkCount, fn, err = varint.Int.Unmarshal(bs[n:])
	n += fn
	if err != nil {
		return d, n, err
	}

	d.PageCount, fn, err = varint.Int.Unmarshal(bs[n:])
	n += fn
	if err != nil {
		return d, n, err
	}

	d.CreatedAt, fn, err = timeMUS{}.Unmarshal(bs[n:])
	n += fn
	if err != nil {
		return d, n, err
	}

	d.UpdatedAt, fn, err = timeMUS{}.Unmarshal(bs[n:])
	n += fn
	if err != nil {
		return d, n, err
	}

	return d, n, nil
}

func (documentMUS) Size(d Document) int {
	return uuidMUS{}.Size(d.Id) +
		ord.String.Size(string(d.TenantID)) +
		ord.String.Size(d.Filename) +
		ord.String.Size(d.MimeType) +
		varint.Int64.Size(d.SizeBytes) +
		varint.Int.Size(int(d.Status)) +
		varint.Int.Size(d.ChunkCount) +
		varint.Int.Size(d.PageCount) +
		timeMUS{}.Size(d.CreatedAt) +
		timeMUS{}.Size(d.UpdatedAt)
}

type chunkMUS struct{}

func (chunkMUS) Marshal(c Chunk, bs []byte) int {
	n := IDMUS.Marshal(c.Id, bs)
	n += uuidMUS{}.Marshal(c.DocumentID, bs[n:])
	n += ord.String.Marshal(string(c.TenantID), bs[n:])
	n += ord.String.Marshal(c.Content, bs[n:])
	n += varint.Int.Marshal(c.Index, bs[n:])
	n += vectorMUS{}.Marshal(c.Vector, bs[n:])
	n += metadataMUS{}.Marshal(c.Metadata, bs[n:])
	n += timeMUS{}.Marshal(c.CreatedAt, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (Chunk, int, error) {
	var c Chunk
	var n int

	id, fn, err := IDMUS.Unmarshal(bs)
	n += fn
	if err != nil {
		return c, n, err
	}
	c.Id = id

	docID, fn, err := uuidMUS{}.Unmarshal(bs[n:])
	n += fn
	if err != nil {
		return c, n, err
	}
	c.DocumentID = docID

	tenant, fn, err := ord.String.Unmarshal(bs[n:])
	n += fn
	if err != nil {
		return c, n, err
	}
	c.TenantID = TenantID(tenant)

	c.Content, fn, err = ord.String.Unmarshal(bs[n:])
	n += fn
	if err != nil {
		return c, n, err
	}

	c.Index, fn, err = varint.Int.Unmarshal(bs[n:])
	n += fn
	if err != nil {
		return c, n, err
	}

	c.Vector, fn, err = vectorMUS{}.Unmarshal(bs[n:])
	n += fn
	if err != nil {
		return c, n, err
	}

	c.Metadata, fn, err = metadataMUS{}.Unmarshal(bs[n:])
	n += fn
	if err != nil {
		return c, n, err
	}

	c.CreatedAt, fn, err = timeMUS{}.Unmarshal(bs[n:])
	n += fn
	if err != nil {
		return c, n, err
	}

	return c, n, nil
}

func (chunkMUS) Size(c Chunk) int {
	return IDMUS.Size(c.Id) +
		uuidMUS{}.Size(c.DocumentID) +
		ord.String.Size(string(c.TenantID)) +
		ord.String.Size(c.Content) +
		varint.Int.Size(c.Index) +
		vectorMUS{}.Size(c.Vector) +
		metadataMUS{}.Size(c.Metadata) +
		timeMUS{}.Size(c.CreatedAt)
}
