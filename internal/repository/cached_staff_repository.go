package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/medinsight/staff-admin/internal/domain"
	"github.com/medinsight/staff-admin/internal/observability"
)

const (
	staffKeyPrefix     = "staff:id:"
	staffListVersion   = "staff:list:version"
	staffListKeyPrefix = "staff:list:"
)

// CachedStaffRepository is a cache-aside decorator over another StaffRepository.
// Single records are cached by id; list results are keyed by a version counter
// that every write bumps. Redis failures fall through to the wrapped repository.
type CachedStaffRepository struct {
	next    StaffRepository
	client  *redis.Client
	ttl     time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
}

var _ StaffRepository = (*CachedStaffRepository)(nil)

// NewCachedStaffRepository wraps next with a Redis cache.
func NewCachedStaffRepository(next StaffRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger, metrics *observability.Metrics) *CachedStaffRepository {
	return &CachedStaffRepository{next: next, client: client, ttl: ttl, logger: logger, metrics: metrics}
}

func (r *CachedStaffRepository) Create(ctx context.Context, staff *domain.Staff) error {
	if err := r.next.Create(ctx, staff); err != nil {
		return err
	}
	r.invalidate(ctx, staff.ID)
	return nil
}

func (r *CachedStaffRepository) Update(ctx context.Context, staff *domain.Staff) error {
	if err := r.next.Update(ctx, staff); err != nil {
		return err
	}
	r.invalidate(ctx, staff.ID)
	return nil
}

func (r *CachedStaffRepository) Delete(ctx context.Context, id int64) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedStaffRepository) GetByID(ctx context.Context, id int64) (*domain.Staff, error) {
	key := staffKey(id)
	var cached domain.Staff
	if r.load(ctx, key, &cached) {
		return &cached, nil
	}

	staff, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, withoutSecrets(*staff))
	return staff, nil
}

// GetByEmail is used by login and uniqueness checks and always reads through.
func (r *CachedStaffRepository) GetByEmail(ctx context.Context, email string) (*domain.Staff, error) {
	return r.next.GetByEmail(ctx, email)
}

func (r *CachedStaffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.Staff, error) {
	version, err := r.client.Get(ctx, staffListVersion).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		r.logger.Warn("staff cache unavailable", zap.Error(err))
		return r.next.List(ctx, filter)
	}

	key := listKey(version, filter)
	var cached []domain.Staff
	if r.load(ctx, key, &cached) {
		return cached, nil
	}

	list, err := r.next.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, withoutSecretsList(list))
	return list, nil
}

// withoutSecrets clears the password hash before a record goes to Redis.
// Cache hits therefore carry no hash. Login reads through GetByEmail, and
// Update keeps the stored hash when the record it is given has none.
func withoutSecrets(s domain.Staff) domain.Staff {
	s.PasswordHash = ""
	return s
}

func withoutSecretsList(list []domain.Staff) []domain.Staff {
	out := make([]domain.Staff, len(list))
	for i, s := range list {
		out[i] = withoutSecrets(s)
	}
	return out
}

func (r *CachedStaffRepository) load(ctx context.Context, key string, dst any) bool {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("staff cache read failed", zap.String("key", key), zap.Error(err))
		}
		r.metrics.RecordCacheLookup(false)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		r.logger.Warn("staff cache entry corrupt", zap.String("key", key), zap.Error(err))
		r.metrics.RecordCacheLookup(false)
		return false
	}
	r.metrics.RecordCacheLookup(true)
	return true
}

func (r *CachedStaffRepository) store(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		r.logger.Warn("staff cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *CachedStaffRepository) invalidate(ctx context.Context, id int64) {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, staffKey(id))
	pipe.Incr(ctx, staffListVersion)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("staff cache invalidation failed", zap.Int64("staff_id", id), zap.Error(err))
	}
}

func staffKey(id int64) string {
	return fmt.Sprintf("%s%d", staffKeyPrefix, id)
}

func listKey(version int64, filter StaffFilter) string {
	typ := "*"
	if filter.Type != nil {
		typ = string(*filter.Type)
	}
	active := "*"
	if filter.Active != nil {
		active = fmt.Sprintf("%t", *filter.Active)
	}
	return fmt.Sprintf("%s%d:%s:%s:%d:%d", staffListKeyPrefix, version, typ, active, filter.Limit, filter.Offset)
}
