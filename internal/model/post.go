package model

import (
	"time"

	"github.com/d60-Lab/gin-blog/pkg/domain"
)

// Post 博文，UserID 在创建时写入且不可修改
type Post struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `gorm:"type:varchar(36);index:idx_post_user_created;not null"`
	Title     string    `gorm:"type:varchar(255);not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index:idx_post_user_created"`
	UpdatedAt time.Time
}

func (Post) TableName() string { return "posts" }

// ToDomain 转为对外 JSON 结构
func (p *Post) ToDomain() domain.Post {
	return domain.Post{
		ID:        p.ID,
		UserID:    p.UserID,
		Title:     p.Title,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// PostsToDomain 批量转换，空列表返回非 nil 切片
func PostsToDomain(posts []*Post) []domain.Post {
	out := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ToDomain())
	}
	return out
}
