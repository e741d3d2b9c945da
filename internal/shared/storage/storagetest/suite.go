// Package storagetest CatalogStore 共享不变式测试套件
//
// 两个后端实现跑同一套用例，行为分叉在结构上被抓住。
// 各实现的测试文件只负责构造自己的 store 并调用 Run。
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-catalog/internal/shared/model"
	"campus-catalog/internal/shared/storage"
)

// Factory 为每个子测试构造一个干净的 store
type Factory func(t *testing.T) storage.CatalogStore

// Run 执行全部不变式用例
func Run(t *testing.T, newStore Factory) {
	t.Run("UserLifecycle", func(t *testing.T) { testUserLifecycle(t, newStore(t)) })
	t.Run("DuplicateEmail", func(t *testing.T) { testDuplicateEmail(t, newStore(t)) })
	t.Run("CourseLifecycle", func(t *testing.T) { testCourseLifecycle(t, newStore(t)) })
	t.Run("CourseStatusListing", func(t *testing.T) { testCourseStatusListing(t, newStore(t)) })
	t.Run("CascadeDelete", func(t *testing.T) { testCascadeDelete(t, newStore(t)) })
	t.Run("LessonAppendOrder", func(t *testing.T) { testLessonAppendOrder(t, newStore(t)) })
	t.Run("LessonUpdateKeepsOrder", func(t *testing.T) { testLessonUpdateKeepsOrder(t, newStore(t)) })
	t.Run("DeleteLeavesGapsNotDuplicates", func(t *testing.T) { testDeleteLeavesGaps(t, newStore(t)) })
	t.Run("ReorderPermutation", func(t *testing.T) { testReorderPermutation(t, newStore(t)) })
	t.Run("ReorderInvalidIsIdempotent", func(t *testing.T) { testReorderInvalid(t, newStore(t)) })
	t.Run("DoubleEnrollment", func(t *testing.T) { testDoubleEnrollment(t, newStore(t)) })
	t.Run("EnrollmentStatus", func(t *testing.T) { testEnrollmentStatus(t, newStore(t)) })
	t.Run("Reviews", func(t *testing.T) { testReviews(t, newStore(t)) })
	t.Run("SeedBatch", func(t *testing.T) { testSeedBatch(t, newStore(t)) })
}

// ============================================================================
// 构造辅助
// ============================================================================

func newUser(id, email string, role model.UserRole) *model.User {
	now := time.Now()
	return &model.User{
		ID: id, Email: email, Name: "User " + id, Credential: "hash-" + id,
		Role: role, CreatedAt: now, UpdatedAt: now,
	}
}

func newCourse(id, teacherID string, status model.CourseStatus, lessons ...*model.Lesson) *model.Course {
	now := time.Now()
	if lessons == nil {
		lessons = []*model.Lesson{}
	}
	return &model.Course{
		ID: id, Title: "Course " + id, Description: "desc", TeacherID: teacherID,
		Status: status, Lessons: lessons, CreatedAt: now, UpdatedAt: now,
	}
}

func newLesson(id string, order int) *model.Lesson {
	return &model.Lesson{ID: id, Title: "Lesson " + id, Content: "<p>body</p>", Order: order}
}

func mustAddLessons(t *testing.T, s storage.CatalogStore, courseID string, ids ...string) {
	t.Helper()
	ctx := context.Background()
	for _, id := range ids {
		require.NoError(t, s.AddLesson(ctx, courseID, newLesson(id, 0)))
	}
}

func lessonIDs(c *model.Course) []string {
	ids := make([]string, 0, len(c.Lessons))
	for _, l := range c.Lessons {
		ids = append(ids, l.ID)
	}
	return ids
}

// ============================================================================
// 用户
// ============================================================================

func testUserLifecycle(t *testing.T, s storage.CatalogStore) {
	ctx := context.Background()

	// 缺席读取返回 (nil, nil)
	u, err := s.GetUserByID(ctx, "user-missing")
	require.NoError(t, err)
	assert.Nil(t, u)

	alice := newUser("user-alice", "alice@example.com", model.UserRoleStudent)
	require.NoError(t, s.CreateUser(ctx, alice))

	got, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, "hash-user-alice", got.Credential)

	// 邮箱大小写敏感
	got, err = s.GetUserByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)

	alice.Name = "Alice Updated"
	require.NoError(t, s.UpdateUser(ctx, alice))
	got, err = s.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Updated", got.Name)

	count, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	require.NoError(t, s.DeleteUser(ctx, alice.ID))
	assert.ErrorIs(t, s.DeleteUser(ctx, alice.ID), storage.ErrNotFound)

	ghost := newUser("user-ghost", "ghost@example.com", model.UserRoleStudent)
	assert.ErrorIs(t, s.UpdateUser(ctx, ghost), storage.ErrNotFound)
}

func testDuplicateEmail(t *testing.T, s storage.CatalogStore) {
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, newUser("user-a", "taken@example.com", model.UserRoleStudent)))

	err := s.CreateUser(ctx, newUser("user-b", "taken@example.com", model.UserRoleTeacher))
	assert.ErrorIs(t, err, storage.ErrDuplicateEmail)

	// 改邮箱撞车同样触发
	other := newUser("user-c", "free@example.com", model.UserRoleStudent)
	require.NoError(t, s.CreateUser(ctx, other))
	other.Email = "taken@example.com"
	assert.ErrorIs(t, s.UpdateUser(ctx, other), storage.ErrDuplicateEmail)

	// 原记录不受影响
	got, err := s.GetUserByEmail(ctx, "free@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "user-c", got.ID)
}

// ============================================================================
// 课程
// ============================================================================

func testCourseLifecycle(t *testing.T, s storage.CatalogStore) {
	ctx := context.Background()

	c, err := s.GetCourse(ctx, "course-missing")
	require.NoError(t, err)
	assert.Nil(t, c)

	course := newCourse("course-1", "teacher-1", model.CourseStatusDraft,
		newLesson("lesson-a", 0), newLesson("lesson-b", 1))
	course.Image = model.ExternalRef("https://example.com/cover.jpg")
	require.NoError(t, s.CreateCourse(ctx, course))

	got, err := s.GetCourse(ctx, course.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"lesson-a", "lesson-b"}, lessonIDs(got))
	require.NotNil(t, got.Image)
	assert.Equal(t, model.MediaKindExternal, got.Image.Kind)

	// 元数据更新不触碰课时
	got.Title = "Renamed"
	got.Image = nil
	require.NoError(t, s.UpdateCourseMeta(ctx, got))
	got, err = s.GetCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Nil(t, got.Image)
	assert.Equal(t, []string{"lesson-a", "lesson-b"}, lessonIDs(got))

	byTeacher, err := s.ListCoursesByTeacher(ctx, "teacher-1")
	require.NoError(t, err)
	assert.Len(t, byTeacher, 1)

	assert.ErrorIs(t, s.DeleteCourse(ctx, "course-missing"), storage.ErrNotFound)
}

func testCourseStatusListing(t *testing.T, s storage.CatalogStore) {
	ctx := context.Background()

	draft := newCourse("course-draft", "teacher-1", model.CourseStatusDraft)
	published := newCourse("course-pub", "teacher-1", model.CourseStatusPublished)
	require.NoError(t, s.CreateCourse(ctx, draft))
	require.NoError(t, s.CreateCourse(ctx, published))

	pubs, err := s.ListCoursesByStatus(ctx, model.CourseStatusPublished)
	require.NoError(t, err)
	require.Len(t, pubs, 1)
	assert.Equal(t, "course-pub", pubs[0].ID)

	// 发布草稿后立即可见
	draft.Status = model.CourseStatusPublished
	require.NoError(t, s.UpdateCourseMeta(ctx, draft))
	pubs, err = s.ListCoursesByStatus(ctx, model.CourseStatusPublished)
	require.NoError(t, err)
	assert.Len(t, pubs, 2)

	// 归档后立即不可见
	published.Status = model.CourseStatusArchived
	require.NoError(t, s.UpdateCourseMeta(ctx, published))
	pubs, err = s.ListCoursesByStatus(ctx, model.CourseStatusPublished)
	require.NoError(t, err)
	require.Len(t, pubs, 1)
	assert.Equal(t, "course-draft", pubs[0].ID)
}

func testCascadeDelete(t *testing.T, s storage.CatalogStore) {
	ctx := context.Background()

	course := newCourse("course-cascade", "teacher-1", model.CourseStatusPublished,
		newLesson("lesson-1", 0), newLesson("lesson-2", 1), newLesson("lesson-3", 2))
	require.NoError(t, s.CreateCourse(ctx, course))

	require.NoError(t, s.DeleteCourse(ctx, course.ID))

	got, err := s.GetCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// 课时随聚合消亡，针对旧课时的操作全部 ErrNotFound
	assert.ErrorIs(t, s.DeleteLesson(ctx, course.ID, "lesson-1"), storage.ErrNotFound)
}

// ============================================================================
// 课时顺序
// ============================================================================

func testLessonAppendOrder(t *testing.T, s storage.CatalogStore) {
	ctx := context.Background()

	require.NoError(t, s.CreateCourse(ctx, newCourse("course-ord", "teacher-1", model.CourseStatusDraft)))
	mustAddLessons(t, s, "course-ord", "lesson-1", "lesson-2", "lesson-3")

	got, err := s.GetCourse(ctx, "course-ord")
	require.NoError(t, err)
	assert.Equal(t, []string{"lesson-1", "lesson-2", "lesson-3"}, lessonIDs(got))

	// 不存在的课程追加课时报 ErrNotFound
	err = s.AddLesson(ctx, "course-missing", newLesson("lesson-x", 0))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testLessonUpdateKeepsOrder(t *testing.T, s storage.CatalogStore) {
	ctx := context.Background()

	require.NoError(t, s.CreateCourse(ctx, newCourse("course-upd", "teacher-1", model.CourseStatusDraft)))
	mustAddLessons(t, s, "course-upd", "lesson-1", "lesson-2")

	updated := newLesson("lesson-1", 0)
	updated.Title = "Rewritten"
	updated.Video = model.ExternalRef("https://example.com/v.mp4")
	require.NoError(t, s.UpdateLesson(ctx, "course-upd", updated))

	got, err := s.GetCourse(ctx, "course-upd")
	require.NoError(t, err)
	assert.Equal(t, []string{"lesson-1", "lesson-2"}, lessonIDs(got))
	assert.Equal(t, "Rewritten", got.Lessons[0].Title)
	require.NotNil(t, got.Lessons[0].Video)

	ghost := newLesson("lesson-ghost", 0)
	assert.ErrorIs(t, s.UpdateLesson(ctx, "course-upd", ghost), storage.ErrNotFound)
}

func testDeleteLeavesGaps(t *testing.T, s storage.CatalogStore) {
	ctx := context.Background()

	require.NoError(t, s.CreateCourse(ctx, newCourse("course-gap", "teacher-1", model.CourseStatusDraft)))
	mustAddLessons(t, s, "course-gap", "lesson-1", "lesson-2", "lesson-3")

	// 删中间一个，再追加一个：序号可以有空洞，但绝不重复
	require.NoError(t, s.DeleteLesson(ctx, "course-gap", "lesson-2"))
	mustAddLessons(t, s, "course-gap", "lesson-4")

	got, err := s.GetCourse(ctx, "course-gap")
	require.NoError(t, err)
	assert.Equal(t, []string{"lesson-1", "lesson-3", "lesson-4"}, lessonIDs(got))

	seen := map[int]bool{}
	for _, l := range got.Lessons {
		assert.False(t, seen[l.Order], "duplicate order %d", l.Order)
		seen[l.Order] = true
	}

	assert.ErrorIs(t, s.DeleteLesson(ctx, "course-gap", "lesson-2"), storage.ErrNotFound)
}

func testReorderPermutation(t *testing.T, s storage.CatalogStore) {
	ctx := context.Background()

	require.NoError(t, s.CreateCourse(ctx, newCourse("course-re", "teacher-1", model.CourseStatusDraft)))
	mustAddLessons(t, s, "course-re", "lesson-1", "lesson-2", "lesson-3")

	require.NoError(t, s.ReorderLessons(ctx, "course-re", []string{"lesson-3", "lesson-1", "lesson-2"}))

	got, err := s.GetCourse(ctx, "course-re")
	require.NoError(t, err)
	assert.Equal(t, []string{"lesson-3", "lesson-1", "lesson-2"}, lessonIDs(got))

	// 重排后追加仍落在末尾
	mustAddLessons(t, s, "course-re", "lesson-4")
	got, err = s.GetCourse(ctx, "course-re")
	require.NoError(t, err)
	assert.Equal(t, []string{"lesson-3", "lesson-1", "lesson-2", "lesson-4"}, lessonIDs(got))
}

func testReorderInvalid(t *testing.T, s storage.CatalogStore) {
	ctx := context.Background()

	require.NoError(t, s.CreateCourse(ctx, newCourse("course-bad", "teacher-1", model.CourseStatusDraft)))
	mustAddLessons(t, s, "course-bad", "lesson-1", "lesson-2", "lesson-3")

	cases := []struct {
		name string
		ids  []string
	}{
		{"missing id", []string{"lesson-1", "lesson-2"}},
		{"unknown id", []string{"lesson-1", "lesson-2", "lesson-x"}},
		{"duplicate id", []string{"lesson-1", "lesson-2", "lesson-2"}},
		{"too many", []string{"lesson-1", "lesson-2", "lesson-3", "lesson-1"}},
		{"empty", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.ReorderLessons(ctx, "course-bad", tc.ids)
			assert.ErrorIs(t, err, storage.ErrInvalidOrder)

			// 失败幂等：顺序保持不变
			got, err := s.GetCourse(ctx, "course-bad")
			require.NoError(t, err)
			assert.Equal(t, []string{"lesson-1", "lesson-2", "lesson-3"}, lessonIDs(got))
		})
	}

	assert.ErrorIs(t, s.ReorderLessons(ctx, "course-missing", []string{"lesson-1"}), storage.ErrNotFound)
}

// ============================================================================
// 选课
// ============================================================================

func newEnrollment(id, studentID, courseID string, status model.EnrollmentStatus) *model.Enrollment {
	now := time.Now()
	return &model.Enrollment{
		ID: id, StudentID: studentID, CourseID: courseID,
		Status: status, CreatedAt: now, UpdatedAt: now,
	}
}

func testDoubleEnrollment(t *testing.T, s storage.CatalogStore) {
	ctx := context.Background()

	require.NoError(t, s.CreateEnrollment(ctx, newEnrollment("enroll-1", "student-1", "course-1", model.EnrollmentStatusPending)))

	// 同组合重复插入冲突
	err := s.CreateEnrollment(ctx, newEnrollment("enroll-2", "student-1", "course-1", model.EnrollmentStatusPending))
	assert.ErrorIs(t, err, storage.ErrAlreadyEnrolled)

	// Rejected 记录同样占用组合
	require.NoError(t, s.UpdateEnrollmentStatus(ctx, "enroll-1", model.EnrollmentStatusRejected))
	err = s.CreateEnrollment(ctx, newEnrollment("enroll-3", "student-1", "course-1", model.EnrollmentStatusPending))
	assert.ErrorIs(t, err, storage.ErrAlreadyEnrolled)

	// 不同组合互不影响
	require.NoError(t, s.CreateEnrollment(ctx, newEnrollment("enroll-4", "student-1", "course-2", model.EnrollmentStatusPending)))
	require.NoError(t, s.CreateEnrollment(ctx, newEnrollment("enroll-5", "student-2", "course-1", model.EnrollmentStatusPending)))
}

func testEnrollmentStatus(t *testing.T, s storage.CatalogStore) {
	ctx := context.Background()

	require.NoError(t, s.CreateEnrollment(ctx, newEnrollment("enroll-1", "student-1", "course-1", model.EnrollmentStatusPending)))

	got, err := s.GetEnrollmentByPair(ctx, "student-1", "course-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.EnrollmentStatusPending, got.Status)

	got, err = s.GetEnrollmentByPair(ctx, "student-1", "course-other")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.UpdateEnrollmentStatus(ctx, "enroll-1", model.EnrollmentStatusApproved))
	got, err = s.GetEnrollment(ctx, "enroll-1")
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentStatusApproved, got.Status)

	assert.ErrorIs(t, s.UpdateEnrollmentStatus(ctx, "enroll-missing", model.EnrollmentStatusApproved), storage.ErrNotFound)

	byStudent, err := s.ListEnrollmentsByStudent(ctx, "student-1")
	require.NoError(t, err)
	assert.Len(t, byStudent, 1)
}

// ============================================================================
// 评价
// ============================================================================

func testReviews(t *testing.T, s storage.CatalogStore) {
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		r := &model.Review{
			ID: fmt.Sprintf("review-%d", i), StudentID: "student-1", CourseID: "course-1",
			Rating: i, Comment: fmt.Sprintf("comment %d", i), CreatedAt: time.Now(),
		}
		require.NoError(t, s.CreateReview(ctx, r))
	}

	got, err := s.ListReviewsByCourse(ctx, "course-1")
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = s.ListReviewsByCourse(ctx, "course-other")
	require.NoError(t, err)
	assert.Empty(t, got)
}

// ============================================================================
// 演示数据批次
// ============================================================================

func testSeedBatch(t *testing.T, s storage.CatalogStore) {
	ctx := context.Background()

	batch := &model.SeedBatch{
		Users: []*model.User{
			newUser("user-seed-1", "seed1@example.com", model.UserRoleTeacher),
			newUser("user-seed-2", "seed2@example.com", model.UserRoleStudent),
		},
		Courses: []*model.Course{
			newCourse("course-seed", "user-seed-1", model.CourseStatusPublished,
				newLesson("lesson-seed-1", 0), newLesson("lesson-seed-2", 1)),
		},
		Enrollments: []*model.Enrollment{
			newEnrollment("enroll-seed", "user-seed-2", "course-seed", model.EnrollmentStatusApproved),
		},
		Reviews: []*model.Review{
			{ID: "review-seed", StudentID: "user-seed-2", CourseID: "course-seed", Rating: 5, CreatedAt: time.Now()},
		},
	}
	require.NoError(t, s.SeedDemoData(ctx, batch))

	count, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	course, err := s.GetCourse(ctx, "course-seed")
	require.NoError(t, err)
	require.NotNil(t, course)
	assert.Equal(t, []string{"lesson-seed-1", "lesson-seed-2"}, lessonIDs(course))

	e, err := s.GetEnrollmentByPair(ctx, "user-seed-2", "course-seed")
	require.NoError(t, err)
	require.NotNil(t, e)

	reviews, err := s.ListReviewsByCourse(ctx, "course-seed")
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}
