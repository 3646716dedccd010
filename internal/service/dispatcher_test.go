package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	block    chan struct{}
	err      error
}

func (p *fakePublisher) Publish(ctx context.Context, subject string, _ any) error {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return p.err
}

func (p *fakePublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.subjects...)
}

func TestEventDispatcher_DrainsOnStop(t *testing.T) {
	pub := &fakePublisher{}
	d := NewEventDispatcher(pub, 16)
	stop := d.Start(2)

	for i := 0; i < 10; i++ {
		d.Enqueue(context.Background(), "post.created", i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, stop(ctx))
	assert.Len(t, pub.published(), 10)
	assert.Equal(t, 0, d.QueueLen())
}

func TestEventDispatcher_DropsWhenFull(t *testing.T) {
	pub := &fakePublisher{block: make(chan struct{})}
	d := NewEventDispatcher(pub, 1)

	// no workers yet: the first event fills the queue, the rest are dropped
	d.Enqueue(context.Background(), "a", nil)
	d.Enqueue(context.Background(), "b", nil)
	d.Enqueue(context.Background(), "c", nil)
	assert.Equal(t, 1, d.QueueLen())

	close(pub.block)
	stop := d.Start(1)
	require.NoError(t, stop(context.Background()))
	assert.Equal(t, []string{"a"}, pub.published())
}

func TestEventDispatcher_PublishErrorDoesNotStopWorkers(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	d := NewEventDispatcher(pub, 4)
	stop := d.Start(1)

	d.Enqueue(context.Background(), "a", nil)
	d.Enqueue(context.Background(), "b", nil)
	require.NoError(t, stop(context.Background()))
	assert.Equal(t, []string{"a", "b"}, pub.published())
}

func TestEventDispatcher_EnqueueIgnoresRequestCancellation(t *testing.T) {
	pub := &fakePublisher{}
	d := NewEventDispatcher(pub, 4)

	ctx, cancel := context.WithCancel(context.Background())
	d.Enqueue(ctx, "post.created", nil)
	cancel()

	stop := d.Start(1)
	require.NoError(t, stop(context.Background()))
	assert.Equal(t, []string{"post.created"}, pub.published())
}

func TestEventDispatcher_ReportAggregatesLatency(t *testing.T) {
	pub := &fakePublisher{}
	d := NewEventDispatcher(pub, 8)
	stopReport := d.Report(10 * time.Millisecond)
	stop := d.Start(1)

	for i := 0; i < 3; i++ {
		d.Enqueue(context.Background(), "post.updated", i)
	}
	require.NoError(t, stop(context.Background()))

	assert.Eventually(t, func() bool { return d.Stats().Published == 3 }, time.Second, 5*time.Millisecond)
	st := d.Stats()
	assert.GreaterOrEqual(t, st.MaxLatency, st.AvgLatency)
	require.NoError(t, stopReport(context.Background()))
}
