// Package eventbus 集合变更通知总线
//
// 托管后端的实时更新通道：写路径在成功提交后发布"某集合变了"
// 的粗粒度事件，订阅方收到后整体重查（不承诺增量 diff）。
// 嵌入式后端没有推送语义，接线时用 MemoryBus 保持装配统一，
// 其订阅方依约定在变更后显式重查。
package eventbus

import (
	"context"
	"time"
)

// Collection 参与变更通知的集合名
type Collection string

const (
	ColUsers       Collection = "users"
	ColCourses     Collection = "courses"
	ColEnrollments Collection = "enrollments"
	ColReviews     Collection = "reviews"
)

// ChangeType 变更类型
type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// Change 集合变更事件
//
// EntityID 仅供日志/调试；订阅方的契约是收到事件后整体重查，
// 不得依赖事件内容做增量更新。
type Change struct {
	Collection Collection `json:"collection"`
	Type       ChangeType `json:"type"`
	EntityID   string     `json:"entity_id,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Bus 变更总线接口
type Bus interface {
	// PublishChange 发布变更事件；失败不应影响已提交的写操作
	PublishChange(ctx context.Context, change *Change) error

	// SubscribeChanges 订阅指定集合的变更流
	// ctx 取消后通道关闭；通道缓冲写满时事件可能被丢弃（重查语义下无害）
	SubscribeChanges(ctx context.Context, col Collection) (<-chan *Change, error)

	Close() error
}

// 流 Key 前缀和常量
const (
	KeyCatalogChanges = "catalog_changes:"

	// MaxStreamLength 流最大长度
	MaxStreamLength = 1000
)
