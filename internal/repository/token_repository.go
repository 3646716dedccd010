package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/gin-blog/internal/model"
)

// TokenRepository 记录已注销的令牌 (jti)，直到其自然过期
type TokenRepository interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// --- redis ---

const revokedKeyPrefix = "revoked:"

type redisTokenRepository struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisTokenRepository 基于 Redis 的实现，key 的 TTL 为令牌剩余有效期
func NewRedisTokenRepository(rdb *redis.Client) TokenRepository {
	return &redisTokenRepository{rdb: rdb, now: time.Now}
}

func (r *redisTokenRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, revokedKeyPrefix+jti, 1, ttl).Err()
}

func (r *redisTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.rdb.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// --- gorm ---

type dbTokenRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDBTokenRepository 基于数据库表 revoked_tokens 的实现
func NewDBTokenRepository(db *gorm.DB) TokenRepository {
	return &dbTokenRepository{db: db, now: time.Now}
}

func (r *dbTokenRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	rec := &model.RevokedToken{JTI: jti, ExpiresAt: expiresAt.UTC()}
	// 重复注销幂等
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rec).Error
}

func (r *dbTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var rec model.RevokedToken
	err := r.db.WithContext(ctx).Where("jti = ?", jti).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PurgeExpired 清理已过期的注销记录
func PurgeExpired(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at < ?", now.UTC()).Delete(&model.RevokedToken{})
	return res.RowsAffected, res.Error
}
