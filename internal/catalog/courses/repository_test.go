package courses

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-catalog/internal/shared/blob"
	"campus-catalog/internal/shared/blob/local"
	"campus-catalog/internal/shared/eventbus"
	"campus-catalog/internal/shared/model"
	"campus-catalog/internal/shared/storage"
	sqlitedriver "campus-catalog/internal/shared/storage/driver/sqlite"
	"campus-catalog/internal/shared/storage/repository"
)

func newTestRepository(t *testing.T) (*Repository, *local.Store) {
	t.Helper()
	db, err := sqlitedriver.Open(":memory:")
	require.NoError(t, err)
	dialect := sqlitedriver.NewDialect()
	require.NoError(t, dialect.AutoMigrate(db))
	store := repository.NewStore(db, dialect)
	t.Cleanup(func() { store.Close() })

	blobs, err := local.NewStore(t.TempDir())
	require.NoError(t, err)

	return NewRepository(store, blobs, eventbus.NewMemoryBus(), nil), blobs
}

func pngUpload(name string) *model.FileUpload {
	return &model.FileUpload{Name: name, ContentType: "image/png", Data: []byte("png-bytes-" + name)}
}

func TestCreateWithCover(t *testing.T) {
	r, blobs := newTestRepository(t)
	ctx := context.Background()

	course, err := r.Create(ctx, CourseInput{
		Title: "Go 101", TeacherID: "teacher-1",
		Cover: model.SetMediaFile(pngUpload("cover.png")),
	})
	require.NoError(t, err)
	assert.Equal(t, model.CourseStatusDraft, course.Status, "empty status defaults to draft")
	require.True(t, course.Image.IsBlob())

	ok, err := blobs.Exists(ctx, course.Image.Value)
	require.NoError(t, err)
	assert.True(t, ok)

	// 外部 URL 封面不经过 blob
	course2, err := r.Create(ctx, CourseInput{
		Title: "Web 101", TeacherID: "teacher-1", Status: model.CourseStatusPublished,
		Cover: model.SetMediaURL("https://cdn.example.com/web.jpg"),
	})
	require.NoError(t, err)
	require.NotNil(t, course2.Image)
	assert.Equal(t, model.MediaKindExternal, course2.Image.Kind)

	url, err := r.ResolveMediaURL(ctx, course2.Image)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/web.jpg", url)
}

func TestUpdateMetaCoverTransitions(t *testing.T) {
	r, blobs := newTestRepository(t)
	ctx := context.Background()

	course, err := r.Create(ctx, CourseInput{
		Title: "Go 101", TeacherID: "teacher-1",
		Cover: model.SetMediaFile(pngUpload("cover.png")),
	})
	require.NoError(t, err)
	blobKey := course.Image.Value

	// 换成外部 URL：旧对象被清理
	got, err := r.UpdateMeta(ctx, course.ID, nil, model.SetMediaURL("https://cdn.example.com/new.jpg"))
	require.NoError(t, err)
	assert.Equal(t, model.MediaKindExternal, got.Image.Kind)
	ok, err := blobs.Exists(ctx, blobKey)
	require.NoError(t, err)
	assert.False(t, ok)

	// Keep 不动封面，patch 生效
	title := "Go 102"
	status := model.CourseStatusPublished
	got, err = r.UpdateMeta(ctx, course.ID, &model.CoursePatch{Title: &title, Status: &status}, model.KeepMedia())
	require.NoError(t, err)
	assert.Equal(t, "Go 102", got.Title)
	assert.Equal(t, model.CourseStatusPublished, got.Status)
	require.NotNil(t, got.Image)

	// Remove 清空封面
	got, err = r.UpdateMeta(ctx, course.ID, nil, model.RemoveMedia())
	require.NoError(t, err)
	assert.Nil(t, got.Image)

	_, err = r.UpdateMeta(ctx, "course-missing", nil, model.KeepMedia())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLessonMediaSlots(t *testing.T) {
	r, blobs := newTestRepository(t)
	ctx := context.Background()

	course, err := r.Create(ctx, CourseInput{Title: "Go 101", TeacherID: "teacher-1"})
	require.NoError(t, err)

	lesson, err := r.AddLesson(ctx, course.ID, LessonInput{
		Title: "Intro", Content: "<p>hi</p>", Duration: "10:00",
		Video:      model.SetMediaFile(&model.FileUpload{Name: "v.mp4", ContentType: "video/mp4", Data: make([]byte, 2*1024*1024)}),
		Attachment: pngUpload("slides.pdf"),
	})
	require.NoError(t, err)
	require.True(t, lesson.Video.IsBlob())
	require.NotNil(t, lesson.VideoSizeMB)
	assert.InDelta(t, 2.0, *lesson.VideoSizeMB, 0.01)
	require.True(t, lesson.Attachment.IsBlob())
	assert.Equal(t, "slides.pdf", lesson.AttachmentName)

	// 视频换外部 URL：大小元数据清空，旧对象清理
	videoKey := lesson.Video.Value
	got, err := r.UpdateLesson(ctx, course.ID, lesson.ID, &model.LessonPatch{
		Video: model.SetMediaURL("https://video.example.com/v"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.MediaKindExternal, got.Video.Kind)
	assert.Nil(t, got.VideoSizeMB)
	ok, err := blobs.Exists(ctx, videoKey)
	require.NoError(t, err)
	assert.False(t, ok)

	// 附件槽拒绝外部 URL
	_, err = r.UpdateLesson(ctx, course.ID, lesson.ID, &model.LessonPatch{
		Attach: model.SetMediaURL("https://files.example.com/x"),
	})
	assert.ErrorIs(t, err, storage.ErrMediaUpload)

	// 附件移除：引用与元数据一起清空
	attachKey := got.Attachment.Value
	got, err = r.UpdateLesson(ctx, course.ID, lesson.ID, &model.LessonPatch{
		Attach: model.RemoveMedia(),
	})
	require.NoError(t, err)
	assert.Nil(t, got.Attachment)
	assert.Empty(t, got.AttachmentName)
	assert.Nil(t, got.AttachSizeMB)
	ok, err = blobs.Exists(ctx, attachKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteCascadesBlobs(t *testing.T) {
	r, blobs := newTestRepository(t)
	ctx := context.Background()

	course, err := r.Create(ctx, CourseInput{
		Title: "Go 101", TeacherID: "teacher-1",
		Cover: model.SetMediaFile(pngUpload("cover.png")),
	})
	require.NoError(t, err)
	lesson, err := r.AddLesson(ctx, course.ID, LessonInput{
		Title:      "Intro",
		Video:      model.SetMediaFile(&model.FileUpload{Name: "v.mp4", ContentType: "video/mp4", Data: []byte("v")}),
		Attachment: pngUpload("slides.pdf"),
	})
	require.NoError(t, err)

	keys := []string{course.Image.Value, lesson.Video.Value, lesson.Attachment.Value}
	require.NoError(t, r.Delete(ctx, course.ID))

	got, err := r.Get(ctx, course.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	for _, key := range keys {
		ok, err := blobs.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, "blob %s should be cleaned up", key)
	}
}

func TestDeleteLessonCleansBlobs(t *testing.T) {
	r, blobs := newTestRepository(t)
	ctx := context.Background()

	course, err := r.Create(ctx, CourseInput{Title: "Go 101", TeacherID: "teacher-1"})
	require.NoError(t, err)
	lesson, err := r.AddLesson(ctx, course.ID, LessonInput{
		Title:      "Intro",
		Attachment: pngUpload("slides.pdf"),
	})
	require.NoError(t, err)

	require.NoError(t, r.DeleteLesson(ctx, course.ID, lesson.ID))
	ok, err := blobs.Exists(ctx, "courses/"+course.ID+"/lessons/"+lesson.ID+"/attachment")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, r.DeleteLesson(ctx, course.ID, lesson.ID), storage.ErrNotFound)
}

func TestReorderPassThrough(t *testing.T) {
	r, _ := newTestRepository(t)
	ctx := context.Background()

	course, err := r.Create(ctx, CourseInput{Title: "Go 101", TeacherID: "teacher-1"})
	require.NoError(t, err)
	l1, err := r.AddLesson(ctx, course.ID, LessonInput{Title: "A"})
	require.NoError(t, err)
	l2, err := r.AddLesson(ctx, course.ID, LessonInput{Title: "B"})
	require.NoError(t, err)

	require.NoError(t, r.ReorderLessons(ctx, course.ID, []string{l2.ID, l1.ID}))
	got, err := r.Get(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{l2.ID, l1.ID}, got.LessonIDs())

	assert.ErrorIs(t, r.ReorderLessons(ctx, course.ID, []string{l1.ID}), storage.ErrInvalidOrder)
}

// failingBlob Put 永远失败的 blob.Store 桩
type failingBlob struct{}

var errBlobDown = errors.New("blob store down")

func (failingBlob) Put(context.Context, string, []byte, string) error { return errBlobDown }
func (failingBlob) Resolve(context.Context, string) (string, error)   { return "", errBlobDown }
func (failingBlob) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, errBlobDown
}
func (failingBlob) Exists(context.Context, string) (bool, error) { return false, errBlobDown }
func (failingBlob) Delete(context.Context, string) error         { return errBlobDown }

var _ blob.Store = failingBlob{}

func TestUploadFailureLeavesNoRecord(t *testing.T) {
	db, err := sqlitedriver.Open(":memory:")
	require.NoError(t, err)
	dialect := sqlitedriver.NewDialect()
	require.NoError(t, dialect.AutoMigrate(db))
	store := repository.NewStore(db, dialect)
	t.Cleanup(func() { store.Close() })

	r := NewRepository(store, failingBlob{}, nil, nil)
	ctx := context.Background()

	_, err = r.Create(ctx, CourseInput{
		Title: "Go 101", TeacherID: "teacher-1",
		Cover: model.SetMediaFile(pngUpload("cover.png")),
	})
	assert.ErrorIs(t, err, storage.ErrMediaUpload)

	all, err := r.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "no record written when the upload failed")

	// 课时媒体上传失败同理
	good := NewRepository(store, failingBlob{}, nil, nil)
	course := &model.Course{ID: "course-x", Title: "X", TeacherID: "teacher-1", Status: model.CourseStatusDraft}
	require.NoError(t, store.CreateCourse(ctx, course))
	_, err = good.AddLesson(ctx, "course-x", LessonInput{
		Title: "Intro", Attachment: pngUpload("slides.pdf"),
	})
	assert.ErrorIs(t, err, storage.ErrMediaUpload)
	got, err := store.GetCourse(ctx, "course-x")
	require.NoError(t, err)
	assert.Empty(t, got.Lessons)
}

func TestReplaceFileCleansLegacyKey(t *testing.T) {
	db, err := sqlitedriver.Open(":memory:")
	require.NoError(t, err)
	dialect := sqlitedriver.NewDialect()
	require.NoError(t, dialect.AutoMigrate(db))
	store := repository.NewStore(db, dialect)
	t.Cleanup(func() { store.Close() })

	blobs, err := local.NewStore(t.TempDir())
	require.NoError(t, err)
	r := NewRepository(store, blobs, eventbus.NewMemoryBus(), nil)
	ctx := context.Background()

	// 注入路径写出的封面不在固定 key 上
	legacyCover := "seed/covers/intro.jpg"
	require.NoError(t, blobs.Put(ctx, legacyCover, []byte("old-cover"), "image/jpeg"))
	legacyVideo := "seed/videos/intro-1.mp4"
	require.NoError(t, blobs.Put(ctx, legacyVideo, []byte("old-video"), "video/mp4"))

	require.NoError(t, store.CreateCourse(ctx, &model.Course{
		ID: "course-legacy", Title: "Intro", TeacherID: "teacher-1",
		Status: model.CourseStatusPublished, Image: model.BlobRef(legacyCover),
		Lessons: []*model.Lesson{
			{ID: "lesson-legacy", Title: "L1", Video: model.BlobRef(legacyVideo), Order: 0},
		},
	}))

	updated, err := r.UpdateMeta(ctx, "course-legacy", nil, model.SetMediaFile(pngUpload("cover.png")))
	require.NoError(t, err)
	assert.Equal(t, "courses/course-legacy/cover", updated.Image.Value)

	ok, err := blobs.Exists(ctx, legacyCover)
	require.NoError(t, err)
	assert.False(t, ok, "replaced cover at a legacy key is cleaned up")
	ok, err = blobs.Exists(ctx, updated.Image.Value)
	require.NoError(t, err)
	assert.True(t, ok)

	lesson, err := r.UpdateLesson(ctx, "course-legacy", "lesson-legacy", &model.LessonPatch{
		Video: model.SetMediaFile(&model.FileUpload{Name: "v.mp4", ContentType: "video/mp4", Data: []byte("new-video")}),
	})
	require.NoError(t, err)
	assert.Equal(t, "courses/course-legacy/lessons/lesson-legacy/video", lesson.Video.Value)

	ok, err = blobs.Exists(ctx, legacyVideo)
	require.NoError(t, err)
	assert.False(t, ok, "replaced video at a legacy key is cleaned up")
	ok, err = blobs.Exists(ctx, lesson.Video.Value)
	require.NoError(t, err)
	assert.True(t, ok)
}
