package seed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"

	"campus-catalog/internal/shared/blob/local"
	"campus-catalog/internal/shared/model"
	"campus-catalog/internal/shared/storage"
	sqlitedriver "campus-catalog/internal/shared/storage/driver/sqlite"
	"campus-catalog/internal/shared/storage/repository"
)

func newTestStore(t *testing.T) storage.CatalogStore {
	t.Helper()
	db, err := sqlitedriver.Open(":memory:")
	require.NoError(t, err)
	dialect := sqlitedriver.NewDialect()
	require.NoError(t, dialect.AutoMigrate(db))
	store := repository.NewStore(db, dialect)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestBlobs(t *testing.T) *local.Store {
	t.Helper()
	blobs, err := local.NewStore(t.TempDir())
	require.NoError(t, err)
	return blobs
}

func TestRunSeedsEmptyDirectory(t *testing.T) {
	store := newTestStore(t)
	blobs := newTestBlobs(t)
	ctx := context.Background()

	assets := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jpeg-bytes-" + r.URL.Path))
	}))
	defer assets.Close()

	b := NewBootstrapper(store, blobs, assets.Client(), assets.URL, nil)
	seeded, err := b.Run(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)

	// 数据集：1 管理员 + 1 教师 + 2 学生
	count, err := store.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)

	courses, err := store.ListCoursesByStatus(ctx, model.CourseStatusPublished)
	require.NoError(t, err)
	require.Len(t, courses, 2)

	lessonCounts := map[string]int{}
	for _, c := range courses {
		lessonCounts[c.ID] = len(c.Lessons)
		// 素材全部就位：封面是 blob 引用且字节可读
		require.True(t, c.Image.IsBlob())
		ok, err := blobs.Exists(ctx, c.Image.Value)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, map[string]int{"course-demo-intro": 3, "course-demo-web": 2}, lessonCounts)

	enrollments, err := store.ListEnrollments(ctx)
	require.NoError(t, err)
	require.Len(t, enrollments, 2)
	statuses := map[model.EnrollmentStatus]int{}
	for _, e := range enrollments {
		statuses[e.Status]++
	}
	assert.Equal(t, 1, statuses[model.EnrollmentStatusApproved])
	assert.Equal(t, 1, statuses[model.EnrollmentStatusPending])

	reviews, err := store.ListReviewsByCourse(ctx, "course-demo-intro")
	require.NoError(t, err)
	assert.Len(t, reviews, 1)

	// 演示凭据可通过 bcrypt 校验
	admin, err := store.GetUserByEmail(ctx, "admin@campus.dev")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.NotEqual(t, "admin123", admin.Credential)
}

func TestRunSkipsNonEmptyDirectory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, &model.User{
		ID: "user-existing", Email: "existing@example.com", Name: "E",
		Role: model.UserRoleStudent,
	}))

	b := NewBootstrapper(store, newTestBlobs(t), nil, "", nil)
	seeded, err := b.Run(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)

	count, err := store.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "existing data untouched")
}

func TestAssetFailureDegradesRecordOnly(t *testing.T) {
	store := newTestStore(t)
	blobs := newTestBlobs(t)
	ctx := context.Background()

	// 第一门课的封面 404，第二门正常
	assets := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/covers/intro.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("jpeg-bytes"))
	}))
	defer assets.Close()

	b := NewBootstrapper(store, blobs, assets.Client(), assets.URL, nil)
	seeded, err := b.Run(ctx)
	require.NoError(t, err, "per-asset failure never aborts seeding")
	assert.True(t, seeded)

	intro, err := store.GetCourse(ctx, "course-demo-intro")
	require.NoError(t, err)
	require.NotNil(t, intro)
	assert.Nil(t, intro.Image, "failed asset degrades to no media")
	assert.Len(t, intro.Lessons, 3, "the record itself is still seeded")

	web, err := store.GetCourse(ctx, "course-demo-web")
	require.NoError(t, err)
	require.True(t, web.Image.IsBlob())
}

func TestNoAssetBaseSkipsFetches(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b := NewBootstrapper(store, newTestBlobs(t), nil, "", nil)
	seeded, err := b.Run(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)

	intro, err := store.GetCourse(ctx, "course-demo-intro")
	require.NoError(t, err)
	assert.Nil(t, intro.Image)
}

func TestDemoUserHashesCredential(t *testing.T) {
	u, err := demoUser("user-x", "x@campus.dev", "X", "pw123", model.UserRoleStudent, time.Now())
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Credential), []byte("pw123")))
}
