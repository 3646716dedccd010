package domain

import (
	"strings"
	"time"
)

// TitleMaxLen 标题最大字符数
const TitleMaxLen = 255

// Post 博文对外 JSON 结构
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostInput 创建/更新博文的请求体
type PostInput struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
}

// Normalize 去掉首尾空白
func (in PostInput) Normalize() PostInput {
	return PostInput{
		Title:   strings.TrimSpace(in.Title),
		Content: strings.TrimSpace(in.Content),
	}
}

// Validate 规范化后校验，通过时返回 nil
func (in PostInput) Validate() FieldErrors {
	return ValidateStruct(in.Normalize())
}
