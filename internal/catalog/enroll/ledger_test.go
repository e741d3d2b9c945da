package enroll

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-catalog/internal/catalog/views"
	"campus-catalog/internal/shared/eventbus"
	"campus-catalog/internal/shared/model"
	"campus-catalog/internal/shared/storage"
	sqlitedriver "campus-catalog/internal/shared/storage/driver/sqlite"
	"campus-catalog/internal/shared/storage/repository"
)

func newTestLedger(t *testing.T) (*Ledger, storage.CatalogStore) {
	t.Helper()
	db, err := sqlitedriver.Open(":memory:")
	require.NoError(t, err)
	dialect := sqlitedriver.NewDialect()
	require.NoError(t, dialect.AutoMigrate(db))
	store := repository.NewStore(db, dialect)
	t.Cleanup(func() { store.Close() })

	return NewLedger(store, store, store, eventbus.NewMemoryBus(), nil), store
}

func seedUser(t *testing.T, s storage.CatalogStore, id, name string, role model.UserRole) {
	t.Helper()
	now := time.Now()
	require.NoError(t, s.CreateUser(context.Background(), &model.User{
		ID: id, Email: id + "@example.com", Name: name, Role: role,
		CreatedAt: now, UpdatedAt: now,
	}))
}

func seedCourse(t *testing.T, s storage.CatalogStore, id, title, teacherID string) {
	t.Helper()
	now := time.Now()
	require.NoError(t, s.CreateCourse(context.Background(), &model.Course{
		ID: id, Title: title, TeacherID: teacherID, Status: model.CourseStatusPublished,
		CreatedAt: now, UpdatedAt: now,
	}))
}

func TestCreatePendingAndDoubleEnroll(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	e, err := l.Create(ctx, "student-1", "course-1")
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentStatusPending, e.Status, "initial status is always pending")

	_, err = l.Create(ctx, "student-1", "course-1")
	assert.ErrorIs(t, err, storage.ErrAlreadyEnrolled)

	// Rejected 之后组合仍被占用
	require.NoError(t, l.SetStatus(ctx, e.ID, model.EnrollmentStatusRejected))
	_, err = l.Create(ctx, "student-1", "course-1")
	assert.ErrorIs(t, err, storage.ErrAlreadyEnrolled)
}

func TestSetStatusUnconditional(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	e, err := l.Create(ctx, "student-1", "course-1")
	require.NoError(t, err)

	// 无状态机守卫：任意迁移都放行
	require.NoError(t, l.SetStatus(ctx, e.ID, model.EnrollmentStatusApproved))
	require.NoError(t, l.SetStatus(ctx, e.ID, model.EnrollmentStatusRejected))
	require.NoError(t, l.SetStatus(ctx, e.ID, model.EnrollmentStatusPending))

	got, err := l.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentStatusPending, got.Status)

	assert.ErrorIs(t, l.SetStatus(ctx, "enroll-missing", model.EnrollmentStatusApproved), storage.ErrNotFound)
}

func TestGetForStudentAndCourse(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	created, err := l.Create(ctx, "student-1", "course-1")
	require.NoError(t, err)

	got, err := l.GetForStudentAndCourse(ctx, "student-1", "course-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)

	got, err = l.GetForStudentAndCourse(ctx, "student-1", "course-2")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListAllWithDisplayNames(t *testing.T) {
	l, store := newTestLedger(t)
	ctx := context.Background()

	seedUser(t, store, "student-1", "Sara Chen", model.UserRoleStudent)
	seedCourse(t, store, "course-1", "Go 101", "teacher-1")

	_, err := l.Create(ctx, "student-1", "course-1")
	require.NoError(t, err)
	// 双侧悬空的记录
	_, err = l.Create(ctx, "student-ghost", "course-ghost")
	require.NoError(t, err)

	rows, err := l.ListAllWithDisplayNames(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byStudent := map[string]*views.EnrollmentRow{}
	for _, r := range rows {
		byStudent[r.Enrollment.StudentID] = r
	}
	assert.Equal(t, "Sara Chen", byStudent["student-1"].StudentName)
	assert.Equal(t, "Go 101", byStudent["student-1"].CourseTitle)
	assert.Equal(t, views.UnknownStudent, byStudent["student-ghost"].StudentName)
	assert.Equal(t, views.UnknownCourse, byStudent["student-ghost"].CourseTitle)
}

func TestListApprovedCoursesForStudent(t *testing.T) {
	l, store := newTestLedger(t)
	ctx := context.Background()

	seedUser(t, store, "teacher-1", "Tom Rivera", model.UserRoleTeacher)
	seedCourse(t, store, "course-1", "Go 101", "teacher-1")
	seedCourse(t, store, "course-2", "Web 101", "teacher-ghost")

	e1, err := l.Create(ctx, "student-1", "course-1")
	require.NoError(t, err)
	require.NoError(t, l.SetStatus(ctx, e1.ID, model.EnrollmentStatusApproved))
	// Pending 不出现在结果里
	_, err = l.Create(ctx, "student-1", "course-2")
	require.NoError(t, err)

	rows, err := l.ListApprovedCoursesForStudent(ctx, "student-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Go 101", rows[0].Course.Title)
	assert.Equal(t, "Tom Rivera", rows[0].TeacherName)

	// 第二门课也批了，悬空教师降级为 Unknown
	e2, err := l.GetForStudentAndCourse(ctx, "student-1", "course-2")
	require.NoError(t, err)
	require.NoError(t, l.SetStatus(ctx, e2.ID, model.EnrollmentStatusApproved))

	rows, err = l.ListApprovedCoursesForStudent(ctx, "student-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		if r.Course.ID == "course-2" {
			assert.Equal(t, views.UnknownTeacher, r.TeacherName)
		}
	}
}
