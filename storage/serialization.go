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


package storage

import (
	"github.com/crestdesk/crestdesk/core"
)

// MarshalSource serializes a Source to bytes.
func MarshalSource(source *core.Source) []byte {
	buf := make([]byte, core.SourceMUS.Size(*source))
	core.SourceMUS.Marshal(*source, buf)
	return buf
}

// UnmarshalSource deserializes a Source from bytes.
func UnmarshalSource(data []byte) (*core.Source, error) {
	source, _, err := core.SourceMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &source, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, core.ChunkMUS.Size(*chunk))
	core.ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := core.ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

// MarshalJob serializes a Job to bytes.
func MarshalJob(job *core.Job) []byte {
	buf := make([]byte, core.JobMUS.Size(*job))
	core.JobMUS.Marshal(*job, buf)
	return buf
}

// UnmarshalJob deserializes a Job from bytes.
func UnmarshalJob(data []byte) (*core.Job, error) {
	job, _, err := core.JobMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// MarshalTicket serializes a Ticket to bytes.
func MarshalTicket(ticket *core.Ticket) []byte {
	buf := make([]byte, core.TicketMUS.Size(*ticket))
	core.TicketMUS.Marshal(*ticket, buf)
	return buf
}

// UnmarshalTicket deserializes a Ticket from bytes.
func UnmarshalTicket(data []byte) (*core.Ticket, error) {
	ticket, _, err := core.TicketMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// MarshalComment serializes a Comment to bytes.
func MarshalComment(comment *core.Comment) []byte {
	buf := make([]byte, core.CommentMUS.Size(*comment))
	core.CommentMUS.Marshal(*comment, buf)
	return buf
}

// UnmarshalComment deserializes a Comment from bytes.
func UnmarshalComment(data []byte) (*core.Comment, error) {
	comment, _, err := core.CommentMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// MarshalUsageEvent serializes a UsageEvent to bytes.
func MarshalUsageEvent(event *core.UsageEvent) []byte {
	buf := make([]byte, core.UsageEventMUS.Size(*event))
	core.UsageEventMUS.Marshal(*event, buf)
	return buf
}

// UnmarshalUsageEvent deserializes a UsageEvent from bytes.
func UnmarshalUsageEvent(data []byte) (*core.UsageEvent, error) {
	event, _, err := core.UsageEventMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &event, nil
}
