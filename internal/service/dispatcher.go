package service

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/d60-Lab/gin-blog/internal/events"
	"github.com/d60-Lab/gin-blog/pkg/logger"
)

// EventSink 业务侧只负责投递事件
type EventSink interface {
	Enqueue(ctx context.Context, subject string, payload any)
}

type dispatchJob struct {
	ctx     context.Context
	subject string
	payload any
	enqAt   time.Time
}

// EventDispatcher 本地异步事件投递器：有界队列 + 固定 worker，队列满时丢弃并告警
type EventDispatcher struct {
	pub       events.Publisher
	ch        chan dispatchJob
	metricsCh chan time.Duration
	wg        sync.WaitGroup

	statsMu sync.Mutex
	stats   DispatchStats
}

// DispatchStats 已统计的发布次数与入队到发布完成的耗时
type DispatchStats struct {
	Published  int64
	MaxLatency time.Duration
	AvgLatency time.Duration
	total      time.Duration
}

func NewEventDispatcher(pub events.Publisher, queueSize int) *EventDispatcher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &EventDispatcher{pub: pub, ch: make(chan dispatchJob, queueSize), metricsCh: make(chan time.Duration, 1024)}
}

// Start 启动 worker；返回的停止函数会在 ctx 结束前尽量排空队列
func (d *EventDispatcher) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 2
	}
	stopCh := make(chan struct{})
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for {
				select {
				case job := <-d.ch:
					d.publish(job)
				case <-stopCh:
					// 退出前处理完已入队的事件
					for {
						select {
						case job := <-d.ch:
							d.publish(job)
						default:
							return
						}
					}
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		close(stopCh)
		done := make(chan struct{})
		go func() { d.wg.Wait(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (d *EventDispatcher) publish(job dispatchJob) {
	ctx, cancel := context.WithTimeout(job.ctx, 5*time.Second)
	defer cancel()
	if err := d.pub.Publish(ctx, job.subject, job.payload); err != nil {
		logger.Warn("publish event failed", zap.String("subject", job.subject), zap.Error(err))
	}
	select {
	case d.metricsCh <- time.Since(job.enqAt):
	default:
	}
}

// Enqueue 投递事件；只保留请求的 trace 信息，不继承其取消
func (d *EventDispatcher) Enqueue(ctx context.Context, subject string, payload any) {
	detached := trace.ContextWithSpanContext(context.Background(), trace.SpanContextFromContext(ctx))
	select {
	case d.ch <- dispatchJob{ctx: detached, subject: subject, payload: payload, enqAt: time.Now()}:
	default:
		logger.Warn("event queue full, drop", zap.String("subject", subject))
	}
}

// Report 汇总发布耗时，每个 interval 输出一次日志；返回停止函数
func (d *EventDispatcher) Report(interval time.Duration) func(context.Context) error {
	if interval <= 0 {
		interval = time.Minute
	}
	stopCh := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var window int64
		for {
			select {
			case lat := <-d.metricsCh:
				d.observe(lat)
				window++
			case <-ticker.C:
				if window == 0 {
					continue
				}
				st := d.Stats()
				logger.Info("event dispatch stats",
					zap.Int64("published", window),
					zap.Duration("avg_latency", st.AvgLatency),
					zap.Duration("max_latency", st.MaxLatency),
					zap.Int("queue_len", d.QueueLen()),
				)
				window = 0
			case <-stopCh:
				return
			}
		}
	}()
	return func(ctx context.Context) error {
		close(stopCh)
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (d *EventDispatcher) observe(lat time.Duration) {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	d.stats.Published++
	d.stats.total += lat
	if lat > d.stats.MaxLatency {
		d.stats.MaxLatency = lat
	}
	d.stats.AvgLatency = d.stats.total / time.Duration(d.stats.Published)
}

// Stats 累计统计的快照
func (d *EventDispatcher) Stats() DispatchStats {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	return d.stats
}

// QueueLen 当前队列长度（采样值）
func (d *EventDispatcher) QueueLen() int { return len(d.ch) }
