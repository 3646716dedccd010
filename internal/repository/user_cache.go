package repository

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/gin-blog/internal/model"
)

const userCachePrefix = "user:"

// cachedUser 缓存内容不含密码哈希，只服务于令牌鉴权时的按 ID 查询
type cachedUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CachedUserRepository 在 UserRepository 之上为 FindByID 加一层 Redis cache-aside
type CachedUserRepository struct {
	UserRepository
	cache *redis.Client
	ttl   time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewCachedUserRepository(inner UserRepository, cache *redis.Client, ttl time.Duration) *CachedUserRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedUserRepository{UserRepository: inner, cache: cache, ttl: ttl}
}

// FindByID 先查缓存；返回的用户 Password 为空
func (r *CachedUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	key := userCachePrefix + id
	if data, err := r.cache.Get(ctx, key).Bytes(); err == nil {
		var c cachedUser
		if uErr := json.Unmarshal(data, &c); uErr == nil {
			r.hits.Add(1)
			return &model.User{ID: c.ID, Name: c.Name, Email: c.Email, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}, nil
		}
	}

	r.misses.Add(1)
	user, err := r.UserRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c := cachedUser{ID: user.ID, Name: user.Name, Email: user.Email, CreatedAt: user.CreatedAt, UpdatedAt: user.UpdatedAt}
	if payload, err := json.Marshal(c); err == nil {
		_ = r.cache.Set(ctx, key, payload, r.ttl).Err()
	}
	return user, nil
}

// Stats 命中与未命中次数
func (r *CachedUserRepository) Stats() (hits, misses int64) {
	return r.hits.Load(), r.misses.Load()
}
