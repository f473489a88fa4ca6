package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ikms-rag-be/internal/model"
	"ikms-rag-be/internal/repository/contract"
	"ikms-rag-be/pkg/rag/graph"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const redisCheckpointPrefix = "qa:checkpoint:"

// PostgresCheckpointRepository keeps one jsonb row per session
type PostgresCheckpointRepository struct {
	db *gorm.DB
}

func NewPostgresCheckpointRepository(db *gorm.DB) contract.CheckpointRepository {
	return &PostgresCheckpointRepository{db: db}
}

func (r *PostgresCheckpointRepository) Get(ctx context.Context, sessionID string) (*graph.State, bool, error) {
	var m model.QACheckpoint
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var st graph.State
	if err := json.Unmarshal(m.State, &st); err != nil {
		return nil, false, fmt.Errorf("decode checkpoint: %w", err)
	}
	return &st, true, nil
}

func (r *PostgresCheckpointRepository) Put(ctx context.Context, sessionID string, state *graph.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	m := model.QACheckpoint{
		SessionId: sessionID,
		State:     datatypes.JSON(raw),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
	}).Create(&m).Error
}

// RedisCheckpointRepository stores the state as a JSON string per session
type RedisCheckpointRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCheckpointRepository expires checkpoints after ttl; zero keeps them forever
func NewRedisCheckpointRepository(client *redis.Client, ttl time.Duration) contract.CheckpointRepository {
	return &RedisCheckpointRepository{client: client, ttl: ttl}
}

func (r *RedisCheckpointRepository) Get(ctx context.Context, sessionID string) (*graph.State, bool, error) {
	raw, err := r.client.Get(ctx, redisCheckpointPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var st graph.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, false, fmt.Errorf("decode checkpoint: %w", err)
	}
	return &st, true, nil
}

func (r *RedisCheckpointRepository) Put(ctx context.Context, sessionID string, state *graph.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	return r.client.Set(ctx, redisCheckpointPrefix+sessionID, raw, r.ttl).Err()
}
