package model

import "time"

// RevokedToken 已注销令牌（未配置 Redis 时使用）
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;type:varchar(36)"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

func (RevokedToken) TableName() string { return "revoked_tokens" }
