// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：repository/（嵌入式/关系型）、mongostore/（托管文档库）
//   - 初始化时通过依赖注入传入实现
//
// 两个实现共享同一契约与同一套不变式测试（storagetest/），
// 调用侧永远不根据后端身份分支。
package storage

import (
	"context"

	"campus-catalog/internal/shared/model"
)

// UserStore 用户目录存储接口
//
// 单条查询在目标不存在时返回 (nil, nil)，与删改操作的 ErrNotFound 区分：
// 查询的"不存在"是正常结果，写操作的"不存在"是错误。
type UserStore interface {
	// CreateUser 插入用户；邮箱唯一校验与插入原子，冲突返回 ErrDuplicateEmail
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateUser 整条覆写；id 不存在返回 ErrNotFound，邮箱撞车返回 ErrDuplicateEmail
	UpdateUser(ctx context.Context, user *model.User) error
	// DeleteUser 删除目录条目；不级联课程/选课/评价（读取侧降级为 Unknown）
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]*model.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// CourseStore 课程聚合存储接口
//
// 课时归属于课程聚合，所有课时操作都以 courseID 为根。
type CourseStore interface {
	// CreateCourse 插入课程及其（可能为空的）课时列表
	CreateCourse(ctx context.Context, course *model.Course) error
	// GetCourse 课时按存储顺序返回；不存在时 (nil, nil)
	GetCourse(ctx context.Context, id string) (*model.Course, error)
	// UpdateCourseMeta 只覆写课程元数据（标题/描述/状态/封面），不触碰课时
	UpdateCourseMeta(ctx context.Context, course *model.Course) error
	// DeleteCourse 删除课程并级联删除全部课时，不留孤儿
	DeleteCourse(ctx context.Context, id string) error
	ListCoursesByStatus(ctx context.Context, status model.CourseStatus) ([]*model.Course, error)
	ListCoursesByTeacher(ctx context.Context, teacherID string) ([]*model.Course, error)
	ListCourses(ctx context.Context) ([]*model.Course, error)

	// AddLesson 追加到当前顺序末尾；lesson.Order 由存储层按当前最大序号赋值
	AddLesson(ctx context.Context, courseID string, lesson *model.Lesson) error
	// UpdateLesson 整条覆写指定课时（Order 保持既有值）
	UpdateLesson(ctx context.Context, courseID string, lesson *model.Lesson) error
	// DeleteLesson 从顺序中移除；余下序号允许空洞，不允许重复
	DeleteLesson(ctx context.Context, courseID, lessonID string) error
	// ReorderLessons orderedIDs 必须恰为当前课时 id 集合的置换，
	// 否则返回 ErrInvalidOrder 且存储顺序不变；成功时原子生效
	ReorderLessons(ctx context.Context, courseID string, orderedIDs []string) error
}

// EnrollmentStore 选课台账存储接口
type EnrollmentStore interface {
	// CreateEnrollment 组合唯一校验与插入原子；冲突返回 ErrAlreadyEnrolled
	CreateEnrollment(ctx context.Context, e *model.Enrollment) error
	GetEnrollment(ctx context.Context, id string) (*model.Enrollment, error)
	// GetEnrollmentByPair 组合索引点查；不存在时 (nil, nil)
	GetEnrollmentByPair(ctx context.Context, studentID, courseID string) (*model.Enrollment, error)
	// UpdateEnrollmentStatus 无条件状态迁移；id 不存在返回 ErrNotFound
	UpdateEnrollmentStatus(ctx context.Context, id string, status model.EnrollmentStatus) error
	ListEnrollments(ctx context.Context) ([]*model.Enrollment, error)
	ListEnrollmentsByStudent(ctx context.Context, studentID string) ([]*model.Enrollment, error)
}

// ReviewStore 评价存储接口（只追加，无更新/删除路径）
type ReviewStore interface {
	CreateReview(ctx context.Context, r *model.Review) error
	ListReviewsByCourse(ctx context.Context, courseID string) ([]*model.Review, error)
}

// CatalogStore 目录持久化组合接口
type CatalogStore interface {
	UserStore
	CourseStore
	EnrollmentStore
	ReviewStore

	// SeedDemoData 一次性写入演示数据批次
	// 嵌入式后端在单事务内提交；托管后端按集合顺序写入（其原生能力上限）
	SeedDemoData(ctx context.Context, batch *model.SeedBatch) error

	Close() error
}
