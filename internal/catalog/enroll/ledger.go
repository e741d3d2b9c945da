// Package enroll 选课台账服务
package enroll

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"campus-catalog/internal/catalog/views"
	"campus-catalog/internal/shared/eventbus"
	"campus-catalog/internal/shared/model"
	"campus-catalog/internal/shared/storage"
	"campus-catalog/pkg/logging"
)

// Ledger 选课台账服务
type Ledger struct {
	store   storage.EnrollmentStore
	users   storage.UserStore
	courses storage.CourseStore
	bus     eventbus.Bus
	log     *logging.Logger
}

// NewLedger 创建选课台账服务
func NewLedger(store storage.EnrollmentStore, users storage.UserStore, courses storage.CourseStore, bus eventbus.Bus, log *logging.Logger) *Ledger {
	if log == nil {
		log = logging.Default("enroll")
	}
	return &Ledger{store: store, users: users, courses: courses, bus: bus, log: log}
}

func generateID(prefix string) string {
	b := make([]byte, 6)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}

// Create 提交选课申请
//
// 初始状态固定为 Pending。(studentID, courseID) 组合唯一与插入
// 原子校验，既有记录无论处于何种状态（含 Rejected）都触发
// ErrAlreadyEnrolled。
func (l *Ledger) Create(ctx context.Context, studentID, courseID string) (*model.Enrollment, error) {
	now := time.Now()
	e := &model.Enrollment{
		ID:        generateID("enroll"),
		StudentID: studentID,
		CourseID:  courseID,
		Status:    model.EnrollmentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.store.CreateEnrollment(ctx, e); err != nil {
		return nil, err
	}

	l.publish(ctx, eventbus.ChangeCreated, e.ID)
	l.log.WithUserID(studentID).WithCourseID(courseID).Info("Enrollment created", "enrollment_id", e.ID)
	return e, nil
}

// SetStatus 无条件状态迁移
//
// 台账不设状态机守卫，调用方是唯一闸口。id 不存在返回 ErrNotFound。
func (l *Ledger) SetStatus(ctx context.Context, id string, status model.EnrollmentStatus) error {
	if err := l.store.UpdateEnrollmentStatus(ctx, id, status); err != nil {
		return err
	}
	l.publish(ctx, eventbus.ChangeUpdated, id)
	l.log.Info("Enrollment status updated", "enrollment_id", id, "status", status)
	return nil
}

// Get 按 id 查询；不存在时 (nil, nil)
func (l *Ledger) Get(ctx context.Context, id string) (*model.Enrollment, error) {
	return l.store.GetEnrollment(ctx, id)
}

// GetForStudentAndCourse 组合点查；不存在时 (nil, nil)
func (l *Ledger) GetForStudentAndCourse(ctx context.Context, studentID, courseID string) (*model.Enrollment, error) {
	return l.store.GetEnrollmentByPair(ctx, studentID, courseID)
}

// ListForStudent 指定学生的全部选课记录
func (l *Ledger) ListForStudent(ctx context.Context, studentID string) ([]*model.Enrollment, error) {
	return l.store.ListEnrollmentsByStudent(ctx, studentID)
}

// ListAllWithDisplayNames 全部选课记录连接双侧展示名
//
// 悬空引用降级为 Unknown，不因用户/课程已删而失败。
func (l *Ledger) ListAllWithDisplayNames(ctx context.Context) ([]*views.EnrollmentRow, error) {
	enrollments, err := l.store.ListEnrollments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	users, err := l.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	courses, err := l.courses.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return views.EnrollmentRows(enrollments, users, courses), nil
}

// ListApprovedCoursesForStudent 学生已通过选课对应的课程（含教师名）
func (l *Ledger) ListApprovedCoursesForStudent(ctx context.Context, studentID string) ([]*views.CourseWithTeacher, error) {
	enrollments, err := l.store.ListEnrollmentsByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	courses, err := l.courses.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	users, err := l.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return views.ApprovedCourses(enrollments, courses, users), nil
}

func (l *Ledger) publish(ctx context.Context, t eventbus.ChangeType, id string) {
	if l.bus == nil {
		return
	}
	err := l.bus.PublishChange(ctx, &eventbus.Change{
		Collection: eventbus.ColEnrollments,
		Type:       t,
		EntityID:   id,
		Timestamp:  time.Now(),
	})
	if err != nil {
		l.log.WithError(err).Warn("Change publish failed", "collection", eventbus.ColEnrollments)
	}
}
