package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/gin-blog/internal/model"
	"github.com/d60-Lab/gin-blog/internal/repository"
	"github.com/d60-Lab/gin-blog/pkg/jwtutil"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Post{}, &model.RevokedToken{}))
	return db
}

func newTestUserService(t *testing.T, db *gorm.DB) UserService {
	t.Helper()
	jwt := jwtutil.NewManager("test-secret", time.Hour, "gin-blog")
	return NewUserService(
		repository.NewUserRepository(db),
		repository.NewDBTokenRepository(db),
		jwt,
		WithHashCost(bcrypt.MinCost),
	)
}

type sentEvent struct {
	subject string
	payload any
}

// recordingSink collects events synchronously.
type recordingSink struct {
	mu     sync.Mutex
	events []sentEvent
}

func (s *recordingSink) Enqueue(_ context.Context, subject string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, sentEvent{subject: subject, payload: payload})
}

func (s *recordingSink) subjects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.subject)
	}
	return out
}
