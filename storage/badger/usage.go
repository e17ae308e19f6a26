package badger

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/crestdesk/crestdesk/core"
	"github.com/crestdesk/crestdesk/storage"
)

// UsageRepository implements storage.UsageRepository for BadgerDB.
type UsageRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.UsageRepository = (*UsageRepository)(nil)

// NewUsageRepository creates a new UsageRepository.
func NewUsageRepository(backend *Backend) (*UsageRepository, error) {
	idSeq, err := backend.GetSequence(usageEventIDSeq)
	if err != nil {
		return nil, err
	}
	return &UsageRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *UsageRepository) Close() error {
	return r.idSeq.Release()
}

// AddEvent persists a usage event, generating its ID from a sequence.
func (r *UsageRepository) AddEvent(ctx context.Context, event *core.UsageEvent) (*core.UsageEvent, error) {
	if event.TenantID == "" {
		return nil, core.ErrEmptyTenant
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		nextID, err := r.idSeq.Next()
		if err != nil {
			return err
		}
		if nextID == 0 {
			nextID, err = r.idSeq.Next()
			if err != nil {
				return err
			}
		}
		event.ID = nextID

		key := makeUsageKey(event.TenantID, event.CreatedAt, event.ID)
		if err := tx.Set(key, storage.MarshalUsageEvent(event)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return event, nil
}

// SumAmount totals event amounts of one type for the tenant within
// [start, end). The key embeds the timestamp in BigEndian, so the scan
// seeks to the window start and stops at its end.
func (r *UsageRepository) SumAmount(ctx context.Context, tenantID, eventType string, start, end time.Time) (int64, error) {
	if end.Before(start) {
		return 0, storage.ErrInvalidQuery
	}

	var total int64
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeUsageScanKey(tenantID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		endKey := makePartialUsageKey(tenantID, end)
		for iter.Seek(makePartialUsageKey(tenantID, start)); iter.Valid(); iter.Next() {
			if bytes.Compare(iter.Item().Key(), endKey) >= 0 {
				break
			}
			var event *core.UsageEvent
			err := iter.Item().Value(func(val []byte) error {
				var err error
				event, err = storage.UnmarshalUsageEvent(val)
				return err
			})
			if err != nil {
				return err
			}
			if event.Type == eventType {
				total += event.Amount
			}
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return total, nil
}
