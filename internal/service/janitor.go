package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/gin-blog/internal/repository"
	"github.com/d60-Lab/gin-blog/pkg/logger"
)

// TokenJanitor 定期清理 revoked_tokens 中已过期的记录（仅数据库注销表需要）
type TokenJanitor struct {
	db       *gorm.DB
	interval time.Duration
	now      func() time.Time
}

func NewTokenJanitor(db *gorm.DB, interval time.Duration) *TokenJanitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &TokenJanitor{db: db, interval: interval, now: time.Now}
}

// Start 启动后台轮询；返回停止函数
func (j *TokenJanitor) Start() func(context.Context) error {
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		j.loop(stop)
	}()
	return func(ctx context.Context) error {
		close(stop)
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (j *TokenJanitor) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_, _ = j.RunOnce(context.Background())
		}
	}
}

// RunOnce 执行一次清理
func (j *TokenJanitor) RunOnce(ctx context.Context) (int64, error) {
	n, err := repository.PurgeExpired(ctx, j.db, j.now())
	if err != nil {
		logger.Warn("purge revoked tokens failed", zap.Error(err))
		return 0, err
	}
	if n > 0 {
		logger.Debug("purged revoked tokens", zap.Int64("count", n))
	}
	return n, nil
}
