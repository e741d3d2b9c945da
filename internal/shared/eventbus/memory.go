package eventbus

import (
	"context"
	"sync"
)

// MemoryBus 进程内变更总线
//
// 嵌入式部署与测试使用；无持久化、无跨进程可见性。
type MemoryBus struct {
	mu     sync.Mutex
	subs   map[Collection][]*memorySub
	closed bool
}

type memorySub struct {
	ch   chan *Change
	done <-chan struct{}
}

// NewMemoryBus 创建进程内总线
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: map[Collection][]*memorySub{}}
}

var _ Bus = (*MemoryBus)(nil)

// PublishChange 同步扇出；订阅方缓冲写满时丢弃（重查语义下无害）
func (b *MemoryBus) PublishChange(ctx context.Context, change *Change) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	alive := b.subs[change.Collection][:0]
	for _, sub := range b.subs[change.Collection] {
		select {
		case <-sub.done:
			close(sub.ch)
			continue
		default:
		}
		select {
		case sub.ch <- change:
		default:
		}
		alive = append(alive, sub)
	}
	b.subs[change.Collection] = alive
	return nil
}

// SubscribeChanges 订阅集合变更；ctx 取消后通道在下一次发布时关闭
func (b *MemoryBus) SubscribeChanges(ctx context.Context, col Collection) (<-chan *Change, error) {
	sub := &memorySub{ch: make(chan *Change, 16), done: ctx.Done()}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(sub.ch)
		return sub.ch, nil
	}
	b.subs[col] = append(b.subs[col], sub)
	return sub.ch, nil
}

// Close 关闭总线并结束所有订阅
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, subs := range b.subs {
		for _, sub := range subs {
			close(sub.ch)
		}
	}
	b.subs = map[Collection][]*memorySub{}
	return nil
}
