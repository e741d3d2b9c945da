package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBusFanOut(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()
	ctx := context.Background()

	ch1, err := bus.SubscribeChanges(ctx, ColCourses)
	require.NoError(t, err)
	ch2, err := bus.SubscribeChanges(ctx, ColCourses)
	require.NoError(t, err)
	other, err := bus.SubscribeChanges(ctx, ColUsers)
	require.NoError(t, err)

	change := &Change{Collection: ColCourses, Type: ChangeUpdated, EntityID: "course-1", Timestamp: time.Now()}
	require.NoError(t, bus.PublishChange(ctx, change))

	for _, ch := range []<-chan *Change{ch1, ch2} {
		select {
		case got := <-ch:
			assert.Equal(t, ColCourses, got.Collection)
			assert.Equal(t, "course-1", got.EntityID)
		case <-time.After(time.Second):
			t.Fatal("change not delivered")
		}
	}

	// 其他集合的订阅不受影响
	select {
	case <-other:
		t.Fatal("unexpected delivery on users subscription")
	default:
	}
}

func TestMemoryBusDropOnFullBuffer(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()
	ctx := context.Background()

	ch, err := bus.SubscribeChanges(ctx, ColEnrollments)
	require.NoError(t, err)

	// 无人消费时发布不阻塞，多余事件被丢弃
	for i := 0; i < 100; i++ {
		require.NoError(t, bus.PublishChange(ctx, &Change{Collection: ColEnrollments, Type: ChangeCreated}))
	}
	assert.LessOrEqual(t, len(ch), 16)
}

func TestMemoryBusSubscriberCancel(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	subCtx, cancel := context.WithCancel(context.Background())
	ch, err := bus.SubscribeChanges(subCtx, ColUsers)
	require.NoError(t, err)
	cancel()

	// 取消后的下一次发布关闭通道
	require.NoError(t, bus.PublishChange(context.Background(), &Change{Collection: ColUsers, Type: ChangeDeleted}))

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}

func TestMemoryBusClose(t *testing.T) {
	bus := NewMemoryBus()
	ch, err := bus.SubscribeChanges(context.Background(), ColReviews)
	require.NoError(t, err)

	require.NoError(t, bus.Close())

	_, ok := <-ch
	assert.False(t, ok)

	// 关闭后发布与订阅都安全
	require.NoError(t, bus.PublishChange(context.Background(), &Change{Collection: ColReviews}))
	ch2, err := bus.SubscribeChanges(context.Background(), ColReviews)
	require.NoError(t, err)
	_, ok = <-ch2
	assert.False(t, ok)
}
