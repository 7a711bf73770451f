// Package session stores planner sessions as JSON in a cache repository
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alchemorsel/cardapio/internal/domain/planning"
	"github.com/alchemorsel/cardapio/internal/ports/outbound"
)

const keyPrefix = "session:"

// OperationRecorder receives store metrics
type OperationRecorder interface {
	CacheOperation(operation, backend, status string)
}

// Repository implements outbound.SessionRepository. Every Save refreshes
// the TTL, so idle sessions expire ttl after their last change.
type Repository struct {
	cache   outbound.CacheRepository
	backend string
	ttl     time.Duration
	metrics OperationRecorder
	logger  *zap.Logger
}

var _ outbound.SessionRepository = (*Repository)(nil)

// NewRepository creates a session repository on top of cache
func NewRepository(cache outbound.CacheRepository, backend string, ttl time.Duration, metrics OperationRecorder, logger *zap.Logger) *Repository {
	return &Repository{
		cache:   cache,
		backend: backend,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger.Named("session-repository"),
	}
}

// Load returns nil, nil when the session is missing or expired
func (r *Repository) Load(ctx context.Context, id string) (*planning.Session, error) {
	data, err := r.cache.Get(ctx, keyPrefix+id)
	if errors.Is(err, outbound.ErrCacheMiss) {
		r.record("load", "miss")
		return nil, nil
	}
	if err != nil {
		r.record("load", "error")
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	var sess planning.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// A corrupt entry is treated as missing so the user gets a fresh form
		r.logger.Warn("Discarding undecodable session", zap.String("session_id", id), zap.Error(err))
		r.record("load", "corrupt")
		r.purge(ctx, id)
		return nil, nil
	}

	r.record("load", "hit")
	return &sess, nil
}

// Save stores the session under its ID
func (r *Repository) Save(ctx context.Context, sess *planning.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		r.record("save", "error")
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}

	if err := r.cache.Set(ctx, keyPrefix+sess.ID, data, r.ttl); err != nil {
		r.record("save", "error")
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}

	r.record("save", "success")
	return nil
}

// purge drops an entry that can never be decoded. Failing to do so only
// costs another decode attempt on the next load.
func (r *Repository) purge(ctx context.Context, id string) {
	if err := r.cache.Delete(ctx, keyPrefix+id); err != nil {
		r.record("delete", "error")
		r.logger.Warn("Failed to purge undecodable session", zap.String("session_id", id), zap.Error(err))
		return
	}
	r.record("delete", "success")
}

func (r *Repository) record(operation, status string) {
	if r.metrics != nil {
		r.metrics.CacheOperation(operation, r.backend, status)
	}
}
