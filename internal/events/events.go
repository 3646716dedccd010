package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	SubjectPostCreated = "post.created"
	SubjectPostUpdated = "post.updated"
	SubjectPostDeleted = "post.deleted"
)

// PostEvent post.created / post.updated 的消息体
type PostEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostDeletedEvent post.deleted 的消息体
type PostDeletedEvent struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}

// Publisher 事件发布
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// NatsPublisher 发布 JSON 消息，并把 trace context 写入消息头
type NatsPublisher struct {
	nc *nats.Conn
}

func NewNatsPublisher(nc *nats.Conn) *NatsPublisher {
	return &NatsPublisher{nc: nc}
}

// Connect 连接 NATS；url 为空时返回 NopPublisher
func Connect(url string) (Publisher, func(), error) {
	if url == "" {
		return NopPublisher{}, func() {}, nil
	}
	nc, err := nats.Connect(url, nats.Name("gin-blog"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, nil, fmt.Errorf("connect nats: %w", err)
	}
	return NewNatsPublisher(nc), func() { _ = nc.Drain() }, nil
}

func (p *NatsPublisher) Publish(ctx context.Context, subject string, payload any) error {
	msg, err := NewMessage(ctx, subject, payload)
	if err != nil {
		return err
	}
	return p.nc.PublishMsg(msg)
}

// NewMessage 编码消息体并注入 trace 头
func NewMessage(ctx context.Context, subject string, payload any) (*nats.Msg, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", subject, err)
	}
	msg := &nats.Msg{Subject: subject, Data: data, Header: nats.Header{}}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))
	return msg, nil
}

// NopPublisher 丢弃所有事件
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
