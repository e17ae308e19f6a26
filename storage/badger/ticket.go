package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/crestdesk/crestdesk/core"
	"github.com/crestdesk/crestdesk/storage"
)

// TicketRepository implements storage.TicketRepository for BadgerDB.
type TicketRepository struct {
	backend *Backend
}

var _ storage.TicketRepository = (*TicketRepository)(nil)

// NewTicketRepository creates a new TicketRepository.
func NewTicketRepository(backend *Backend) *TicketRepository {
	return &TicketRepository{backend: backend}
}

// Close implements storage.Repository. The backend owns the database handle.
func (r *TicketRepository) Close() error {
	return nil
}

// CreateTicket persists a new ticket.
func (r *TicketRepository) CreateTicket(ctx context.Context, ticket *core.Ticket) (*core.Ticket, error) {
	if ticket.TenantID == "" {
		return nil, core.ErrEmptyTenant
	}
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	if ticket.Status == "" {
		ticket.Status = core.TicketOpen
	}
	if ticket.Priority == "" {
		ticket.Priority = core.PriorityMedium
	}
	now := time.Now().UTC()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	ticket.UpdatedAt = now

	key := makeTicketKey(ticket.TenantID, ticket.ID)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(key)
		if err == nil {
			return storage.ErrDuplicateKey
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		if err := tx.Set(key, storage.MarshalTicket(ticket)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// GetTicket retrieves a ticket scoped to the tenant.
func (r *TicketRepository) GetTicket(ctx context.Context, tenantID, id string) (*core.Ticket, error) {
	var ticket *core.Ticket
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeTicketKey(tenantID, id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			ticket, err = storage.UnmarshalTicket(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// AddComment appends a comment to a ticket.
func (r *TicketRepository) AddComment(ctx context.Context, comment *core.Comment) (*core.Comment, error) {
	if comment.TenantID == "" {
		return nil, core.ErrEmptyTenant
	}
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ticketKey := makeTicketKey(comment.TenantID, comment.TicketID)
		if _, err := tx.Get(ticketKey); err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		key := makeCommentKey(comment.TenantID, comment.TicketID, comment.CreatedAt, comment.ID)
		if err := tx.Set(key, storage.MarshalComment(comment)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns a ticket's comments ordered by creation time,
// oldest first. The key embeds the timestamp in BigEndian, so iteration
// order is already chronological.
func (r *TicketRepository) ListComments(ctx context.Context, tenantID, ticketID string) ([]*core.Comment, error) {
	var comments []*core.Comment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeCommentScanKey(tenantID, ticketID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var comment *core.Comment
			err := iter.Item().Value(func(val []byte) error {
				var err error
				comment, err = storage.UnmarshalComment(val)
				return err
			})
			if err != nil {
				return err
			}
			comments = append(comments, comment)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return comments, nil
}
