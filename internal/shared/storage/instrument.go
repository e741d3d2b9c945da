package storage

import (
	"context"
	"time"

	"campus-catalog/internal/metrics"
	"campus-catalog/internal/shared/model"
)

// InstrumentedStore CatalogStore 的指标装饰器
//
// 每个操作记录一次计数与耗时；backend 标签区分嵌入式/托管实现。
type InstrumentedStore struct {
	inner   CatalogStore
	m       *metrics.Metrics
	backend string
}

var _ CatalogStore = (*InstrumentedStore)(nil)

// Instrument 包装底层存储，透明记录操作指标
func Instrument(inner CatalogStore, m *metrics.Metrics, backend string) *InstrumentedStore {
	return &InstrumentedStore{inner: inner, m: m, backend: backend}
}

func (s *InstrumentedStore) observe(op string, start time.Time, err error) {
	s.m.RecordStoreOp(op, s.backend, time.Since(start), err)
}

func (s *InstrumentedStore) CreateUser(ctx context.Context, user *model.User) error {
	start := time.Now()
	err := s.inner.CreateUser(ctx, user)
	s.observe("create_user", start, err)
	return err
}

func (s *InstrumentedStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	start := time.Now()
	u, err := s.inner.GetUserByID(ctx, id)
	s.observe("get_user", start, err)
	return u, err
}

func (s *InstrumentedStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	start := time.Now()
	u, err := s.inner.GetUserByEmail(ctx, email)
	s.observe("get_user_by_email", start, err)
	return u, err
}

func (s *InstrumentedStore) UpdateUser(ctx context.Context, user *model.User) error {
	start := time.Now()
	err := s.inner.UpdateUser(ctx, user)
	s.observe("update_user", start, err)
	return err
}

func (s *InstrumentedStore) DeleteUser(ctx context.Context, id string) error {
	start := time.Now()
	err := s.inner.DeleteUser(ctx, id)
	s.observe("delete_user", start, err)
	return err
}

func (s *InstrumentedStore) ListUsers(ctx context.Context) ([]*model.User, error) {
	start := time.Now()
	us, err := s.inner.ListUsers(ctx)
	s.observe("list_users", start, err)
	return us, err
}

func (s *InstrumentedStore) CountUsers(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := s.inner.CountUsers(ctx)
	s.observe("count_users", start, err)
	return n, err
}

func (s *InstrumentedStore) CreateCourse(ctx context.Context, course *model.Course) error {
	start := time.Now()
	err := s.inner.CreateCourse(ctx, course)
	s.observe("create_course", start, err)
	return err
}

func (s *InstrumentedStore) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	start := time.Now()
	c, err := s.inner.GetCourse(ctx, id)
	s.observe("get_course", start, err)
	return c, err
}

func (s *InstrumentedStore) UpdateCourseMeta(ctx context.Context, course *model.Course) error {
	start := time.Now()
	err := s.inner.UpdateCourseMeta(ctx, course)
	s.observe("update_course_meta", start, err)
	return err
}

func (s *InstrumentedStore) DeleteCourse(ctx context.Context, id string) error {
	start := time.Now()
	err := s.inner.DeleteCourse(ctx, id)
	s.observe("delete_course", start, err)
	return err
}

func (s *InstrumentedStore) ListCoursesByStatus(ctx context.Context, status model.CourseStatus) ([]*model.Course, error) {
	start := time.Now()
	cs, err := s.inner.ListCoursesByStatus(ctx, status)
	s.observe("list_courses_by_status", start, err)
	return cs, err
}

func (s *InstrumentedStore) ListCoursesByTeacher(ctx context.Context, teacherID string) ([]*model.Course, error) {
	start := time.Now()
	cs, err := s.inner.ListCoursesByTeacher(ctx, teacherID)
	s.observe("list_courses_by_teacher", start, err)
	return cs, err
}

func (s *InstrumentedStore) ListCourses(ctx context.Context) ([]*model.Course, error) {
	start := time.Now()
	cs, err := s.inner.ListCourses(ctx)
	s.observe("list_courses", start, err)
	return cs, err
}

func (s *InstrumentedStore) AddLesson(ctx context.Context, courseID string, lesson *model.Lesson) error {
	start := time.Now()
	err := s.inner.AddLesson(ctx, courseID, lesson)
	s.observe("add_lesson", start, err)
	return err
}

func (s *InstrumentedStore) UpdateLesson(ctx context.Context, courseID string, lesson *model.Lesson) error {
	start := time.Now()
	err := s.inner.UpdateLesson(ctx, courseID, lesson)
	s.observe("update_lesson", start, err)
	return err
}

func (s *InstrumentedStore) DeleteLesson(ctx context.Context, courseID, lessonID string) error {
	start := time.Now()
	err := s.inner.DeleteLesson(ctx, courseID, lessonID)
	s.observe("delete_lesson", start, err)
	return err
}

func (s *InstrumentedStore) ReorderLessons(ctx context.Context, courseID string, orderedIDs []string) error {
	start := time.Now()
	err := s.inner.ReorderLessons(ctx, courseID, orderedIDs)
	s.observe("reorder_lessons", start, err)
	return err
}

func (s *InstrumentedStore) CreateEnrollment(ctx context.Context, e *model.Enrollment) error {
	start := time.Now()
	err := s.inner.CreateEnrollment(ctx, e)
	s.observe("create_enrollment", start, err)
	return err
}

func (s *InstrumentedStore) GetEnrollment(ctx context.Context, id string) (*model.Enrollment, error) {
	start := time.Now()
	e, err := s.inner.GetEnrollment(ctx, id)
	s.observe("get_enrollment", start, err)
	return e, err
}

func (s *InstrumentedStore) GetEnrollmentByPair(ctx context.Context, studentID, courseID string) (*model.Enrollment, error) {
	start := time.Now()
	e, err := s.inner.GetEnrollmentByPair(ctx, studentID, courseID)
	s.observe("get_enrollment_by_pair", start, err)
	return e, err
}

func (s *InstrumentedStore) UpdateEnrollmentStatus(ctx context.Context, id string, status model.EnrollmentStatus) error {
	start := time.Now()
	err := s.inner.UpdateEnrollmentStatus(ctx, id, status)
	s.observe("update_enrollment_status", start, err)
	return err
}

func (s *InstrumentedStore) ListEnrollments(ctx context.Context) ([]*model.Enrollment, error) {
	start := time.Now()
	es, err := s.inner.ListEnrollments(ctx)
	s.observe("list_enrollments", start, err)
	return es, err
}

func (s *InstrumentedStore) ListEnrollmentsByStudent(ctx context.Context, studentID string) ([]*model.Enrollment, error) {
	start := time.Now()
	es, err := s.inner.ListEnrollmentsByStudent(ctx, studentID)
	s.observe("list_enrollments_by_student", start, err)
	return es, err
}

func (s *InstrumentedStore) CreateReview(ctx context.Context, r *model.Review) error {
	start := time.Now()
	err := s.inner.CreateReview(ctx, r)
	s.observe("create_review", start, err)
	return err
}

func (s *InstrumentedStore) ListReviewsByCourse(ctx context.Context, courseID string) ([]*model.Review, error) {
	start := time.Now()
	rs, err := s.inner.ListReviewsByCourse(ctx, courseID)
	s.observe("list_reviews_by_course", start, err)
	return rs, err
}

func (s *InstrumentedStore) SeedDemoData(ctx context.Context, batch *model.SeedBatch) error {
	start := time.Now()
	err := s.inner.SeedDemoData(ctx, batch)
	s.observe("seed_demo_data", start, err)
	return err
}

func (s *InstrumentedStore) Close() error {
	return s.inner.Close()
}
