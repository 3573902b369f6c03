package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/redis/go-redis/v9"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/models"
)

const (
	bulkKeyPrefix  = "autograder:bulk:"
	defaultBulkTTL = 24 * time.Hour
)

// BulkProgressStore keeps the latest snapshot of each bulk batch.
type BulkProgressStore interface {
	Save(ctx context.Context, batch models.BulkBatch) error
	Get(ctx context.Context, id string) (models.BulkBatch, error)
}

type redisBulkStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBulkStore stores batch snapshots as JSON with an expiry.
func NewRedisBulkStore(client *redis.Client, ttl time.Duration) BulkProgressStore {
	if ttl <= 0 {
		ttl = defaultBulkTTL
	}
	return &redisBulkStore{client: client, ttl: ttl}
}

func (s *redisBulkStore) Save(ctx context.Context, batch models.BulkBatch) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode bulk batch: %w", err)
	}
	return s.client.Set(ctx, bulkKeyPrefix+batch.ID, payload, s.ttl).Err()
}

func (s *redisBulkStore) Get(ctx context.Context, id string) (models.BulkBatch, error) {
	payload, err := s.client.Get(ctx, bulkKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.BulkBatch{}, ErrNotFound
		}
		return models.BulkBatch{}, err
	}

	var batch models.BulkBatch
	if err := json.Unmarshal(payload, &batch); err != nil {
		return models.BulkBatch{}, fmt.Errorf("decode bulk batch: %w", err)
	}
	return batch, nil
}

type memoryBulkStore struct {
	batches *xsync.MapOf[string, models.BulkBatch]
}

// NewMemoryBulkStore keeps batch snapshots in process memory.
func NewMemoryBulkStore() BulkProgressStore {
	return &memoryBulkStore{batches: xsync.NewMapOf[string, models.BulkBatch]()}
}

func (s *memoryBulkStore) Save(_ context.Context, batch models.BulkBatch) error {
	s.batches.Store(batch.ID, cloneBatch(batch))
	return nil
}

func (s *memoryBulkStore) Get(_ context.Context, id string) (models.BulkBatch, error) {
	batch, ok := s.batches.Load(id)
	if !ok {
		return models.BulkBatch{}, ErrNotFound
	}
	return cloneBatch(batch), nil
}

func cloneBatch(batch models.BulkBatch) models.BulkBatch {
	batch.Items = append([]models.BulkItem(nil), batch.Items...)
	return batch
}
