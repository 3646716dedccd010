package repository

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/gin-blog/internal/model"
)

func BenchmarkPostWrite(b *testing.B) {
	db := setupTestDB(b)
	repo := NewPostRepository(db)
	ctx := context.Background()

	// 预创建部分用户
	users := make([]string, 100)
	for i := range users {
		users[i] = fmt.Sprintf("u%04d", i)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now().UTC()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = repo.Create(ctx, &model.Post{
			ID:        uuid.NewString(),
			UserID:    users[rng.Intn(len(users))],
			Title:     "bench",
			Content:   "body",
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
}

func BenchmarkListByUser(b *testing.B) {
	db := setupTestDB(b)
	repo := NewPostRepository(db)
	ctx := context.Background()

	// 构造：u0 有 N 篇博文，另有 N 篇属于其他用户
	const N = 2000
	base := time.Now().UTC()
	rows := make([]model.Post, 0, 2*N)
	for i := 0; i < N; i++ {
		at := base.Add(-time.Duration(i) * time.Second)
		rows = append(rows,
			model.Post{ID: uuid.NewString(), UserID: "u0", Title: fmt.Sprintf("t%d", i), Content: "c", CreatedAt: at, UpdatedAt: at},
			model.Post{ID: uuid.NewString(), UserID: fmt.Sprintf("u%d", i%50+1), Title: "x", Content: "c", CreatedAt: at, UpdatedAt: at},
		)
	}
	if err := db.CreateInBatches(&rows, 500).Error; err != nil {
		b.Fatalf("seed posts: %v", err)
	}

	b.ResetTimer()
	b.Run("Owner", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = repo.ListByUser(ctx, "u0")
		}
	})

	b.Run("FindByID", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = repo.FindByID(ctx, rows[i%len(rows)].ID)
		}
	})
}
