package badger

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/crestdesk/crestdesk/core"
	"github.com/crestdesk/crestdesk/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	idSeq, err := backend.GetSequence(chunkIDSeq)
	if err != nil {
		return nil, err
	}
	return &ChunkRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ChunkRepository) Close() error {
	return r.idSeq.Release()
}

// AddChunk persists a chunk, generating its ID from a sequence.
func (r *ChunkRepository) AddChunk(ctx context.Context, chunk *core.Chunk) (*core.Chunk, error) {
	if err := core.ValidateChunk(chunk); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		nextID, err := r.idSeq.Next()
		if err != nil {
			return err
		}
		// BadgerDB sequences can return 0 on first call, so we skip it
		if nextID == 0 {
			nextID, err = r.idSeq.Next()
			if err != nil {
				return err
			}
		}
		chunk.ID = core.ChunkID(nextID)
		chunk.CreatedAt = time.Now().UTC()

		key := makeChunkKey(chunk.TenantID, chunk.SourceID, chunk.ID)
		if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

// AttachVector stores the embedding for an existing chunk.
func (r *ChunkRepository) AttachVector(ctx context.Context, tenantID string, id core.ChunkID, vector []float32) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		chunk, key, err := findChunk(tx, tenantID, id)
		if err != nil {
			return err
		}
		if chunk == nil {
			return storage.ErrNotFound
		}
		chunk.Vector = vector
		if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteChunks removes every chunk of the given source.
func (r *ChunkRepository) DeleteChunks(ctx context.Context, tenantID, sourceID string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		var doomed [][]byte
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkSourceScanKey(tenantID, sourceID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			doomed = append(doomed, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for _, k := range doomed {
			if err := tx.Delete(k); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// CountChunks returns the number of chunks stored for the source.
func (r *ChunkRepository) CountChunks(ctx context.Context, tenantID, sourceID string) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkSourceScanKey(tenantID, sourceID)
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

// SearchChunks finds the tenant's chunks nearest to the query vector by
// cosine distance. Chunks without an embedding are skipped.
func (r *ChunkRepository) SearchChunks(ctx context.Context, tenantID string, vector []float32, topK int) ([]*storage.ChunkMatch, error) {
	if topK <= 0 || len(vector) == 0 {
		return nil, nil
	}

	var matches []*storage.ChunkMatch
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkScanKey(tenantID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			// Unembedded, or embedded at a different dimension than the
			// query vector; a re-index replaces those.
			if len(chunk.Vector) != len(vector) {
				continue
			}
			matches = append(matches, &storage.ChunkMatch{
				Chunk:      chunk,
				Similarity: cosineSimilarity(vector, chunk.Vector),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(matches, func(a, b *storage.ChunkMatch) int {
		if a.Similarity > b.Similarity {
			return -1
		}
		if a.Similarity < b.Similarity {
			return 1
		}
		return 0
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// findChunk scans the tenant's chunks for the given ID. The chunk key
// embeds the source ID, which callers of AttachVector don't carry.
func findChunk(tx *badger.Txn, tenantID string, id core.ChunkID) (*core.Chunk, []byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeChunkScanKey(tenantID)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		item := iter.Item()
		var chunk *core.Chunk
		err := item.Value(func(val []byte) error {
			var err error
			chunk, err = storage.UnmarshalChunk(val)
			return err
		})
		if err != nil {
			return nil, nil, err
		}
		if chunk.ID == id {
			return chunk, item.KeyCopy(nil), nil
		}
	}
	return nil, nil, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 when the lengths differ or either vector has zero magnitude.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := 0; i < len(a); i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
