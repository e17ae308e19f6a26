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


package badger

import (
	"errors"

	"github.com/crestdesk/crestdesk/storage"
)

// Store bundles every repository over a single BadgerDB backend.
type Store struct {
	backend *Backend

	Sources storage.SourceRepository
	Chunks  storage.ChunkRepository
	Jobs    storage.JobRepository
	Tickets storage.TicketRepository
	Usage   storage.UsageRepository
}

// NewStore opens a BadgerDB database at path and wires all repositories
// over it. Caller must Close the store when done.
func NewStore(path string) (*Store, error) {
	return newStore(path, false)
}

func newStore(path string, inMemory bool) (*Store, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}

	chunks, err := NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	usage, err := NewUsageRepository(backend)
	if err != nil {
		chunks.Close()
		backend.Close()
		return nil, err
	}

	return &Store{
		backend: backend,
		Sources: NewSourceRepository(backend),
		Chunks:  chunks,
		Jobs:    NewJobRepository(backend),
		Tickets: NewTicketRepository(backend),
		Usage:   usage,
	}, nil
}

// Close releases the repositories and the underlying database.
func (s *Store) Close() error {
	errs := []error{
		s.Chunks.Close(),
		s.Usage.Close(),
		s.backend.Close(),
	}
	return errors.Join(errs...)
}
