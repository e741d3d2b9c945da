// Package storage 定义存储层领域错误
//
// 这些错误用于隔离业务层与底层存储引擎的错误类型，
// 各驱动实现（repository/mongostore）负责把底层错误转换为这些领域错误。
// 调用方一律通过 errors.Is 判别，不感知后端身份。
package storage

import "errors"

var (
	// ErrNotFound 操作目标 id 不存在
	// 替代 sql.ErrNoRows / mongo.ErrNoDocuments
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateEmail 邮箱唯一约束冲突（注册/改邮箱撞车）
	// 校验与写入必须原子：后端用唯一索引承载，不存在检查-写入窗口
	ErrDuplicateEmail = errors.New("duplicate email")

	// ErrAlreadyEnrolled (student_id, course_id) 组合唯一约束冲突
	// 无论既有记录处于何种状态（含 Rejected）都触发
	ErrAlreadyEnrolled = errors.New("already enrolled")

	// ErrInvalidOrder 重排序载荷不是当前课时 id 集合的置换
	// 失败是幂等的：存储顺序保持不变
	ErrInvalidOrder = errors.New("lesson order is not a permutation of current lessons")

	// ErrUnavailable 底层持久化打开或提交失败
	ErrUnavailable = errors.New("storage unavailable")

	// ErrMediaUpload blob 写入失败，依赖它的记录写入未被尝试
	ErrMediaUpload = errors.New("media upload failed")
)
