package badger

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/crestdesk/crestdesk/core"
	"github.com/crestdesk/crestdesk/storage"
)

// SourceRepository implements storage.SourceRepository for BadgerDB.
type SourceRepository struct {
	backend *Backend
}

var _ storage.SourceRepository = (*SourceRepository)(nil)

// NewSourceRepository creates a new SourceRepository.
func NewSourceRepository(backend *Backend) *SourceRepository {
	return &SourceRepository{backend: backend}
}

// Close implements storage.Repository. The backend owns the database handle.
func (r *SourceRepository) Close() error {
	return nil
}

// CreateSource persists a new source.
func (r *SourceRepository) CreateSource(ctx context.Context, source *core.Source) (*core.Source, error) {
	if source.ID == "" {
		source.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if source.CreatedAt.IsZero() {
		source.CreatedAt = now
	}
	source.UpdatedAt = now

	if err := core.ValidateSource(source); err != nil {
		return nil, err
	}

	key := makeSourceKey(source.TenantID, source.ID)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(key)
		if err == nil {
			return storage.ErrDuplicateKey
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		if err := tx.Set(key, storage.MarshalSource(source)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return source, nil
}

// UpdateSource overwrites an existing source and bumps UpdatedAt.
func (r *SourceRepository) UpdateSource(ctx context.Context, source *core.Source) (*core.Source, error) {
	source.UpdatedAt = time.Now().UTC()

	if err := core.ValidateSource(source); err != nil {
		return nil, err
	}

	key := makeSourceKey(source.TenantID, source.ID)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if _, err := tx.Get(key); err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		if err := tx.Set(key, storage.MarshalSource(source)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return source, nil
}

// GetSource retrieves a source by ID, scoped to the tenant.
func (r *SourceRepository) GetSource(ctx context.Context, tenantID, id string) (*core.Source, error) {
	var source *core.Source
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		source, err = readSource(tx, makeSourceKey(tenantID, id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, storage.ErrNotFound
	}
	return source, nil
}

// ListSources returns the tenant's sources, newest first.
func (r *SourceRepository) ListSources(ctx context.Context, tenantID string, filter storage.SourceFilter) ([]*core.Source, error) {
	if filter.Status != "" {
		if err := core.ValidateSourceStatus(filter.Status); err != nil {
			return nil, storage.ErrInvalidQuery
		}
	}

	query := strings.ToLower(filter.Query)
	var sources []*core.Source

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeSourceScanKey(tenantID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var source *core.Source
			err := iter.Item().Value(func(val []byte) error {
				var err error
				source, err = storage.UnmarshalSource(val)
				return err
			})
			if err != nil {
				return err
			}
			if filter.Status != "" && source.Status != filter.Status {
				continue
			}
			if query != "" && !strings.Contains(strings.ToLower(source.Filename), query) {
				continue
			}
			sources = append(sources, source)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(sources, func(a, b *core.Source) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if filter.Limit > 0 && len(sources) > filter.Limit {
		sources = sources[:filter.Limit]
	}
	return sources, nil
}

// CountSources returns the number of sources the tenant has, in any state.
func (r *SourceRepository) CountSources(ctx context.Context, tenantID string) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeSourceScanKey(tenantID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// StatusCounts returns the number of sources per lifecycle state.
func (r *SourceRepository) StatusCounts(ctx context.Context, tenantID string) (map[core.SourceStatus]int, error) {
	counts := make(map[core.SourceStatus]int, len(core.SourceStatuses))
	for _, status := range core.SourceStatuses {
		counts[status] = 0
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeSourceScanKey(tenantID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var source *core.Source
			err := iter.Item().Value(func(val []byte) error {
				var err error
				source, err = storage.UnmarshalSource(val)
				return err
			})
			if err != nil {
				return err
			}
			counts[source.Status]++
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// DeleteSourceCascade removes the source together with its chunks and jobs
// in a single transaction.
func (r *SourceRepository) DeleteSourceCascade(ctx context.Context, tenantID, id string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSourceKey(tenantID, id)
		source, err := readSource(tx, key)
		if err != nil {
			return err
		}
		if source == nil {
			return storage.ErrNotFound
		}

		// Collect keys first; deleting while iterating is unreliable.
		var doomed [][]byte
		collect := func(prefix []byte, keepValue bool) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			opts.PrefetchValues = keepValue
			iter := tx.NewIterator(opts)
			defer iter.Close()

			for iter.Rewind(); iter.Valid(); iter.Next() {
				item := iter.Item()
				doomed = append(doomed, item.KeyCopy(nil))
				if keepValue {
					jobID, err := item.ValueCopy(nil)
					if err != nil {
						return err
					}
					doomed = append(doomed, makeJobKey(string(jobID)))
				}
			}
			return nil
		}

		if err := collect(makeChunkSourceScanKey(tenantID, id), false); err != nil {
			return err
		}
		// Job index values hold the job ID, so one pass removes both the
		// index entry and the job row.
		if err := collect(makeJobSourceScanKey(tenantID, id), true); err != nil {
			return err
		}
		doomed = append(doomed, key)

		for _, k := range doomed {
			if err := tx.Delete(k); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// readSource reads and deserializes a source within a transaction.
// Returns nil without error when the key is absent.
func readSource(tx *badger.Txn, key []byte) (*core.Source, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}
	var source *core.Source
	err = item.Value(func(val []byte) error {
		var err error
		source, err = storage.UnmarshalSource(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return source, nil
}
