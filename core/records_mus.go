// Copyright 2025 Crestdesk Systems
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
	"sort"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the durable record types. Written by hand against the
// mus-go primitives; field order is part of the stored format and must not
// change without a data migration.

// Timestamps are stored as Unix microseconds.

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	us, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(us).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

// Optional timestamps carry a presence flag so a zero time survives the
// round trip exactly.

func marshalOptTime(t time.Time, bs []byte) (n int) {
	n = ord.Bool.Marshal(!t.IsZero(), bs)
	if !t.IsZero() {
		n += marshalTime(t, bs[n:])
	}
	return n
}

func unmarshalOptTime(bs []byte) (t time.Time, n int, err error) {
	set, n, err := ord.Bool.Unmarshal(bs)
	if err != nil || !set {
		return time.Time{}, n, err
	}
	t, n1, err := unmarshalTime(bs[n:])
	n += n1
	return t, n, err
}

func sizeOptTime(t time.Time) (size int) {
	size = ord.Bool.Size(!t.IsZero())
	if !t.IsZero() {
		size += sizeTime(t)
	}
	return size
}

func marshalVector(v []float32, bs []byte) (n int) {
	n = varint.PositiveInt.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]float32, length)
	for i := 0; i < length; i++ {
		var n1 int
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func sizeVector(v []float32) (size int) {
	size = varint.PositiveInt.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

// String maps are stored with sorted keys so encoding is deterministic.

func marshalStringMap(m map[string]string, bs []byte) (n int) {
	n = varint.PositiveInt.Marshal(len(m), bs)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(m[k], bs[n:])
	}
	return n
}

func unmarshalStringMap(bs []byte) (m map[string]string, n int, err error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	m = make(map[string]string, length)
	for i := 0; i < length; i++ {
		var k, v string
		var n1 int
		k, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		v, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		m[k] = v
	}
	return m, n, nil
}

func sizeStringMap(m map[string]string) (size int) {
	size = varint.PositiveInt.Size(len(m))
	for k, v := range m {
		size += ord.String.Size(k)
		size += ord.String.Size(v)
	}
	return size
}

// SourceMUS serializes Source values.
var SourceMUS = sourceMUS{}

type sourceMUS struct{}

func (sourceMUS) Marshal(v Source, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.TenantID, bs[n:])
	n += ord.String.Marshal(v.Filename, bs[n:])
	n += ord.String.Marshal(v.MimeType, bs[n:])
	n += varint.Int64.Marshal(v.SizeBytes, bs[n:])
	n += ord.String.Marshal(string(v.Status), bs[n:])
	n += ord.String.Marshal(v.StoragePath, bs[n:])
	n += ord.String.Marshal(v.Error, bs[n:])
	n += marshalOptTime(v.IndexedAt, bs[n:])
	n += marshalTime(v.CreatedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (sourceMUS) Unmarshal(bs []byte) (v Source, n int, err error) {
	var n1 int
	if v.ID, n1, err = ord.String.Unmarshal(bs); err != nil {
		return v, n1, err
	}
	n = n1
	if v.TenantID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Filename, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.MimeType, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.SizeBytes, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var status string
	if status, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.Status = SourceStatus(status)
	n += n1
	if v.StoragePath, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Error, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.IndexedAt, n1, err = unmarshalOptTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.CreatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (sourceMUS) Size(v Source) (size int) {
	size = ord.String.Size(v.ID)
	size += ord.String.Size(v.TenantID)
	size += ord.String.Size(v.Filename)
	size += ord.String.Size(v.MimeType)
	size += varint.Int64.Size(v.SizeBytes)
	size += ord.String.Size(string(v.Status))
	size += ord.String.Size(v.StoragePath)
	size += ord.String.Size(v.Error)
	size += sizeOptTime(v.IndexedAt)
	size += sizeTime(v.CreatedAt)
	size += sizeTime(v.UpdatedAt)
	return size
}

// ChunkMUS serializes Chunk values.
var ChunkMUS = chunkMUS{}

type chunkMUS struct{}

func (chunkMUS) Marshal(v Chunk, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.ID), bs)
	n += ord.String.Marshal(v.TenantID, bs[n:])
	n += ord.String.Marshal(v.SourceID, bs[n:])
	n += varint.PositiveInt.Marshal(v.Ordinal, bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	n += marshalVector(v.Vector, bs[n:])
	n += marshalStringMap(v.Meta, bs[n:])
	n += marshalTime(v.CreatedAt, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	var n1 int
	var id uint64
	if id, n1, err = varint.Uint64.Unmarshal(bs); err != nil {
		return v, n1, err
	}
	v.ID = ChunkID(id)
	n = n1
	if v.TenantID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.SourceID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Ordinal, n1, err = varint.PositiveInt.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Content, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Vector, n1, err = unmarshalVector(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Meta, n1, err = unmarshalStringMap(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.CreatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (chunkMUS) Size(v Chunk) (size int) {
	size = varint.Uint64.Size(uint64(v.ID))
	size += ord.String.Size(v.TenantID)
	size += ord.String.Size(v.SourceID)
	size += varint.PositiveInt.Size(v.Ordinal)
	size += ord.String.Size(v.Content)
	size += sizeVector(v.Vector)
	size += sizeStringMap(v.Meta)
	size += sizeTime(v.CreatedAt)
	return size
}

// JobMUS serializes Job values.
var JobMUS = jobMUS{}

type jobMUS struct{}

func (jobMUS) Marshal(v Job, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.TenantID, bs[n:])
	n += ord.String.Marshal(v.Type, bs[n:])
	n += ord.String.Marshal(string(v.Status), bs[n:])
	n += ord.String.Marshal(v.SourceID, bs[n:])
	n += ord.String.Marshal(v.LastError, bs[n:])
	n += varint.PositiveInt.Marshal(v.Progress, bs[n:])
	n += ord.String.Marshal(v.RequestedBy, bs[n:])
	n += ord.String.Marshal(string(v.Mode), bs[n:])
	n += marshalTime(v.CreatedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (jobMUS) Unmarshal(bs []byte) (v Job, n int, err error) {
	var n1 int
	if v.ID, n1, err = ord.String.Unmarshal(bs); err != nil {
		return v, n1, err
	}
	n = n1
	if v.TenantID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Type, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var status string
	if status, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.Status = JobStatus(status)
	n += n1
	if v.SourceID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.LastError, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Progress, n1, err = varint.PositiveInt.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.RequestedBy, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var mode string
	if mode, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.Mode = IndexMode(mode)
	n += n1
	if v.CreatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (jobMUS) Size(v Job) (size int) {
	size = ord.String.Size(v.ID)
	size += ord.String.Size(v.TenantID)
	size += ord.String.Size(v.Type)
	size += ord.String.Size(string(v.Status))
	size += ord.String.Size(v.SourceID)
	size += ord.String.Size(v.LastError)
	size += varint.PositiveInt.Size(v.Progress)
	size += ord.String.Size(v.RequestedBy)
	size += ord.String.Size(string(v.Mode))
	size += sizeTime(v.CreatedAt)
	size += sizeTime(v.UpdatedAt)
	return size
}

// TicketMUS serializes Ticket values.
var TicketMUS = ticketMUS{}

type ticketMUS struct{}

func (ticketMUS) Marshal(v Ticket, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.TenantID, bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Description, bs[n:])
	n += ord.String.Marshal(string(v.Status), bs[n:])
	n += ord.String.Marshal(string(v.Priority), bs[n:])
	n += ord.String.Marshal(v.RequesterID, bs[n:])
	n += ord.String.Marshal(v.AssigneeID, bs[n:])
	n += marshalTime(v.CreatedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (ticketMUS) Unmarshal(bs []byte) (v Ticket, n int, err error) {
	var n1 int
	if v.ID, n1, err = ord.String.Unmarshal(bs); err != nil {
		return v, n1, err
	}
	n = n1
	if v.TenantID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Title, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Description, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var status string
	if status, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.Status = TicketStatus(status)
	n += n1
	var priority string
	if priority, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.Priority = TicketPriority(priority)
	n += n1
	if v.RequesterID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.AssigneeID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.CreatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (ticketMUS) Size(v Ticket) (size int) {
	size = ord.String.Size(v.ID)
	size += ord.String.Size(v.TenantID)
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.Description)
	size += ord.String.Size(string(v.Status))
	size += ord.String.Size(string(v.Priority))
	size += ord.String.Size(v.RequesterID)
	size += ord.String.Size(v.AssigneeID)
	size += sizeTime(v.CreatedAt)
	size += sizeTime(v.UpdatedAt)
	return size
}

// CommentMUS serializes Comment values.
var CommentMUS = commentMUS{}

type commentMUS struct{}

func (commentMUS) Marshal(v Comment, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.TenantID, bs[n:])
	n += ord.String.Marshal(v.TicketID, bs[n:])
	n += ord.String.Marshal(v.AuthorID, bs[n:])
	n += ord.String.Marshal(v.Body, bs[n:])
	n += marshalTime(v.CreatedAt, bs[n:])
	return n
}

func (commentMUS) Unmarshal(bs []byte) (v Comment, n int, err error) {
	var n1 int
	if v.ID, n1, err = ord.String.Unmarshal(bs); err != nil {
		return v, n1, err
	}
	n = n1
	if v.TenantID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.TicketID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.AuthorID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Body, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.CreatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (commentMUS) Size(v Comment) (size int) {
	size = ord.String.Size(v.ID)
	size += ord.String.Size(v.TenantID)
	size += ord.String.Size(v.TicketID)
	size += ord.String.Size(v.AuthorID)
	size += ord.String.Size(v.Body)
	size += sizeTime(v.CreatedAt)
	return size
}

// UsageEventMUS serializes UsageEvent values.
var UsageEventMUS = usageEventMUS{}

type usageEventMUS struct{}

func (usageEventMUS) Marshal(v UsageEvent, bs []byte) (n int) {
	n = varint.Uint64.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.TenantID, bs[n:])
	n += ord.String.Marshal(v.UserID, bs[n:])
	n += ord.String.Marshal(v.Type, bs[n:])
	n += varint.Int64.Marshal(v.Amount, bs[n:])
	n += marshalStringMap(v.Meta, bs[n:])
	n += marshalTime(v.CreatedAt, bs[n:])
	return n
}

func (usageEventMUS) Unmarshal(bs []byte) (v UsageEvent, n int, err error) {
	var n1 int
	if v.ID, n1, err = varint.Uint64.Unmarshal(bs); err != nil {
		return v, n1, err
	}
	n = n1
	if v.TenantID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.UserID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Type, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Amount, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Meta, n1, err = unmarshalStringMap(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.CreatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (usageEventMUS) Size(v UsageEvent) (size int) {
	size = varint.Uint64.Size(v.ID)
	size += ord.String.Size(v.TenantID)
	size += ord.String.Size(v.UserID)
	size += ord.String.Size(v.Type)
	size += varint.Int64.Size(v.Amount)
	size += sizeStringMap(v.Meta)
	size += sizeTime(v.CreatedAt)
	return size
}
