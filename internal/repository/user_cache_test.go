package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/gin-blog/internal/model"
)

func TestCachedUserRepository_FindByID(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	db := setupTestDB(t)
	ctx := context.Background()
	inner := NewUserRepository(db)
	require.NoError(t, inner.Create(ctx, &model.User{ID: "u1", Name: "Ann", Email: "ann@example.com", Password: "hash"}))

	repo := NewCachedUserRepository(inner, rdb, time.Minute)

	u, err := repo.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)
	assert.True(t, mr.Exists(userCachePrefix+"u1"))

	// served from cache even after the row changes
	require.NoError(t, db.Exec("UPDATE users SET name = ? WHERE id = ?", "Ann B", "u1").Error)
	u, err = repo.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)
	assert.Empty(t, u.Password)

	hits, misses := repo.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)

	mr.Del(userCachePrefix + "u1")
	u, err = repo.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ann B", u.Name)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	// FindByEmail bypasses the cache and keeps the hash for login
	u, err = repo.FindByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", u.Password)
}

func TestCachedUserRepository_TTL(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	db := setupTestDB(t)
	ctx := context.Background()
	inner := NewUserRepository(db)
	require.NoError(t, inner.Create(ctx, &model.User{ID: "u1", Name: "Ann", Email: "ann@example.com", Password: "hash"}))

	repo := NewCachedUserRepository(inner, rdb, time.Minute)
	_, err := repo.FindByID(ctx, "u1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists(userCachePrefix+"u1"))
}
