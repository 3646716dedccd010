package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/gin-blog/internal/model"
	"github.com/d60-Lab/gin-blog/internal/repository"
	"github.com/d60-Lab/gin-blog/pkg/jwtutil"
	"github.com/d60-Lab/gin-blog/pkg/logger"
)

// RegisterInput 注册参数（格式校验在 handler 绑定阶段完成）
type RegisterInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
}

// AuthResult 注册/登录成功后返回的令牌与用户
type AuthResult struct {
	Token string
	User  *model.User
}

// UserService 账号与令牌服务
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Logout(ctx context.Context, claims *jwtutil.Claims) error
	// Authenticate 解析令牌并加载用户；任何失败都返回 ErrUnauthenticated
	Authenticate(ctx context.Context, token string) (*model.User, *jwtutil.Claims, error)
}

type userService struct {
	users    repository.UserRepository
	tokens   repository.TokenRepository
	jwt      *jwtutil.Manager
	hashCost int
	now      func() time.Time
}

// UserOption 可选配置
type UserOption func(*userService)

// WithHashCost 指定 bcrypt cost（测试时可降到 bcrypt.MinCost）
func WithHashCost(cost int) UserOption {
	return func(s *userService) { s.hashCost = cost }
}

func NewUserService(users repository.UserRepository, tokens repository.TokenRepository, jwt *jwtutil.Manager, opts ...UserOption) UserService {
	s := &userService{users: users, tokens: tokens, jwt: jwt, hashCost: bcrypt.DefaultCost, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, newValidationError("name", "The name field is required.")
	}
	if in.Password != in.PasswordConfirmation {
		return nil, newValidationError("password", "The password field confirmation does not match.")
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC().Truncate(time.Microsecond)
	user := &model.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Password:  string(hash),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// 并发注册同一邮箱时由唯一索引兜底
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, _, err := s.jwt.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	logger.Info("user registered", zap.String("user_id", user.ID))
	return &AuthResult{Token: token, User: user}, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, _, err := s.jwt.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	logger.Info("user logged in", zap.String("user_id", user.ID))
	return &AuthResult{Token: token, User: user}, nil
}

func (s *userService) Logout(ctx context.Context, claims *jwtutil.Claims) error {
	if claims == nil {
		return ErrUnauthenticated
	}
	expiresAt := s.now().Add(time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.tokens.Revoke(ctx, claims.ID, expiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	logger.Info("user logged out", zap.String("user_id", claims.UserID()))
	return nil
}

func (s *userService) Authenticate(ctx context.Context, token string) (*model.User, *jwtutil.Claims, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, nil, ErrUnauthenticated
	}
	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, nil, ErrUnauthenticated
	}
	user, err := s.users.FindByID(ctx, claims.UserID())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load user: %w", err)
	}
	return user, claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
