package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/gin-blog/internal/events"
	"github.com/d60-Lab/gin-blog/internal/model"
	"github.com/d60-Lab/gin-blog/internal/repository"
	"github.com/d60-Lab/gin-blog/pkg/domain"
)

// PostService 博文服务，所有操作都限定在调用者自己的博文上
type PostService interface {
	List(ctx context.Context, userID string) ([]*model.Post, error)
	Create(ctx context.Context, userID string, in domain.PostInput) (*model.Post, error)
	Get(ctx context.Context, userID, postID string) (*model.Post, error)
	Update(ctx context.Context, userID, postID string, in domain.PostInput) (*model.Post, error)
	// Revise 更新已通过 Get 校验归属的博文，不再重复查询
	Revise(ctx context.Context, post *model.Post, in domain.PostInput) (*model.Post, error)
	Delete(ctx context.Context, userID, postID string) error
}

type postService struct {
	repo   repository.PostRepository
	events EventSink
	now    func() time.Time
}

// PostOption 可选配置
type PostOption func(*postService)

// WithPostClock 替换时钟（测试用）
func WithPostClock(now func() time.Time) PostOption {
	return func(s *postService) { s.now = now }
}

func NewPostService(repo repository.PostRepository, sink EventSink, opts ...PostOption) PostService {
	s := &postService{repo: repo, events: sink, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *postService) List(ctx context.Context, userID string) ([]*model.Post, error) {
	posts, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (s *postService) Create(ctx context.Context, userID string, in domain.PostInput) (*model.Post, error) {
	in = in.Normalize()
	if fe := in.Validate(); fe != nil {
		return nil, &ValidationError{Fields: fe}
	}
	now := s.timestamp()
	post := &model.Post{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     in.Title,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	s.emit(ctx, events.SubjectPostCreated, postEvent(post))
	return post, nil
}

// Get 先判断是否存在 (404)，再判断归属 (403)
func (s *postService) Get(ctx context.Context, userID, postID string) (*model.Post, error) {
	post, err := s.repo.FindByID(ctx, postID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	if post.UserID != userID {
		return nil, ErrForbidden
	}
	return post, nil
}

func (s *postService) Update(ctx context.Context, userID, postID string, in domain.PostInput) (*model.Post, error) {
	post, err := s.Get(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	return s.Revise(ctx, post, in)
}

func (s *postService) Revise(ctx context.Context, post *model.Post, in domain.PostInput) (*model.Post, error) {
	in = in.Normalize()
	if fe := in.Validate(); fe != nil {
		return nil, &ValidationError{Fields: fe}
	}

	post.Title = in.Title
	post.Content = in.Content
	post.UpdatedAt = s.timestamp()
	if err := s.repo.Update(ctx, post); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("update post: %w", err)
	}
	s.emit(ctx, events.SubjectPostUpdated, postEvent(post))
	return post, nil
}

func (s *postService) Delete(ctx context.Context, userID, postID string) error {
	post, err := s.Get(ctx, userID, postID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, post.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("delete post: %w", err)
	}
	s.emit(ctx, events.SubjectPostDeleted, events.PostDeletedEvent{ID: post.ID, UserID: post.UserID})
	return nil
}

// timestamp 截断到微秒，与 postgres timestamptz 的精度一致
func (s *postService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *postService) emit(ctx context.Context, subject string, payload any) {
	if s.events != nil {
		s.events.Enqueue(ctx, subject, payload)
	}
}

func postEvent(p *model.Post) events.PostEvent {
	return events.PostEvent{ID: p.ID, UserID: p.UserID, Title: p.Title, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt}
}
