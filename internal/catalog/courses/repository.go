// Package courses 课程聚合服务
//
// 媒体槽更新遵循先上传后落库的顺序：blob 写入失败返回
// ErrMediaUpload 且记录写入不会被尝试；记录提交后的孤儿对象
// 清理是尽力而为，失败只记日志。
package courses

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"campus-catalog/internal/shared/blob"
	"campus-catalog/internal/shared/eventbus"
	"campus-catalog/internal/shared/model"
	"campus-catalog/internal/shared/storage"
	"campus-catalog/pkg/logging"
)

// Repository 课程聚合服务
type Repository struct {
	store storage.CourseStore
	blobs blob.Store
	bus   eventbus.Bus
	log   *logging.Logger
}

// NewRepository 创建课程服务
func NewRepository(store storage.CourseStore, blobs blob.Store, bus eventbus.Bus, log *logging.Logger) *Repository {
	if log == nil {
		log = logging.Default("courses")
	}
	return &Repository{store: store, blobs: blobs, bus: bus, log: log}
}

// generateID 生成带前缀的唯一标识符（prefix-xxxxxxxxxxxx）
func generateID(prefix string) string {
	b := make([]byte, 6)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}

// 槽位使用固定 key，换文件直接覆盖写，不产生孤儿
func coverKey(courseID string) string {
	return "courses/" + courseID + "/cover"
}

func videoKey(courseID, lessonID string) string {
	return "courses/" + courseID + "/lessons/" + lessonID + "/video"
}

func attachmentKey(courseID, lessonID string) string {
	return "courses/" + courseID + "/lessons/" + lessonID + "/attachment"
}

// CourseInput 建课输入
type CourseInput struct {
	Title       string
	Description string
	TeacherID   string
	Status      model.CourseStatus
	Cover       model.MediaUpdate
}

// Create 创建课程
//
// 封面先上传再写记录；Status 为空时默认草稿。
func (r *Repository) Create(ctx context.Context, in CourseInput) (*model.Course, error) {
	status := in.Status
	if status == "" {
		status = model.CourseStatusDraft
	}

	now := time.Now()
	course := &model.Course{
		ID:          generateID("course"),
		Title:       in.Title,
		Description: in.Description,
		TeacherID:   in.TeacherID,
		Status:      status,
		Lessons:     []*model.Lesson{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	switch in.Cover.Op {
	case model.MediaSetFile:
		key := coverKey(course.ID)
		if err := r.upload(ctx, key, in.Cover.File); err != nil {
			return nil, err
		}
		course.Image = model.BlobRef(key)
	case model.MediaSetURL:
		course.Image = model.ExternalRef(in.Cover.URL)
	}

	if err := r.store.CreateCourse(ctx, course); err != nil {
		return nil, err
	}

	r.publish(ctx, eventbus.ChangeCreated, course.ID)
	r.log.WithCourseID(course.ID).Info("Course created", "title", course.Title, "teacher_id", course.TeacherID)
	return course, nil
}

// Get 按 id 查询课程；不存在时 (nil, nil)
func (r *Repository) Get(ctx context.Context, id string) (*model.Course, error) {
	return r.store.GetCourse(ctx, id)
}

// ListPublished 已发布课程列表
func (r *Repository) ListPublished(ctx context.Context) ([]*model.Course, error) {
	return r.store.ListCoursesByStatus(ctx, model.CourseStatusPublished)
}

// ListByTeacher 指定教师的课程列表
func (r *Repository) ListByTeacher(ctx context.Context, teacherID string) ([]*model.Course, error) {
	return r.store.ListCoursesByTeacher(ctx, teacherID)
}

// ListAll 全部课程列表
func (r *Repository) ListAll(ctx context.Context) ([]*model.Course, error) {
	return r.store.ListCourses(ctx)
}

// UpdateMeta 更新课程元数据
//
// patch 的 nil 字段保持不变；封面指令独立于 patch 应用。
func (r *Repository) UpdateMeta(ctx context.Context, id string, patch *model.CoursePatch, cover model.MediaUpdate) (*model.Course, error) {
	course, err := r.store.GetCourse(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup course: %w", err)
	}
	if course == nil {
		return nil, storage.ErrNotFound
	}

	var orphanKey string
	switch cover.Op {
	case model.MediaSetFile:
		key := coverKey(id)
		// 旧封面 blob 不在固定 key 上时（注入数据等历史来源）按孤儿清理
		if course.Image.IsBlob() && course.Image.Value != key {
			orphanKey = course.Image.Value
		}
		if err := r.upload(ctx, key, cover.File); err != nil {
			return nil, err
		}
		course.Image = model.BlobRef(key)
	case model.MediaSetURL:
		if course.Image.IsBlob() {
			orphanKey = course.Image.Value
		}
		course.Image = model.ExternalRef(cover.URL)
	case model.MediaRemove:
		if course.Image.IsBlob() {
			orphanKey = course.Image.Value
		}
		course.Image = nil
	}

	if patch != nil {
		if patch.Title != nil {
			course.Title = *patch.Title
		}
		if patch.Description != nil {
			course.Description = *patch.Description
		}
		if patch.Status != nil {
			course.Status = *patch.Status
		}
	}
	course.UpdatedAt = time.Now()

	if err := r.store.UpdateCourseMeta(ctx, course); err != nil {
		return nil, err
	}

	r.cleanupOrphan(ctx, orphanKey)
	r.publish(ctx, eventbus.ChangeUpdated, id)
	return course, nil
}

// Delete 删除课程并级联删除课时
//
// 记录删除成功后尽力清理聚合名下的全部 blob 对象。
func (r *Repository) Delete(ctx context.Context, id string) error {
	course, err := r.store.GetCourse(ctx, id)
	if err != nil {
		return fmt.Errorf("lookup course: %w", err)
	}
	if course == nil {
		return storage.ErrNotFound
	}

	if err := r.store.DeleteCourse(ctx, id); err != nil {
		return err
	}

	for _, key := range ownedBlobKeys(course) {
		r.cleanupOrphan(ctx, key)
	}

	r.publish(ctx, eventbus.ChangeDeleted, id)
	r.log.WithCourseID(id).Info("Course deleted", "lessons", len(course.Lessons))
	return nil
}

// ResolveMediaURL 解析媒体引用的展示 URL
//
// 外部 URL 原样返回；blob 引用换取当前会话可用的 URL。
// 解析结果绝不写回记录，调用方每次展示前重新解析。
func (r *Repository) ResolveMediaURL(ctx context.Context, ref *model.MediaRef) (string, error) {
	if ref == nil {
		return "", nil
	}
	if !ref.IsBlob() {
		return ref.Value, nil
	}
	return r.blobs.Resolve(ctx, ref.Value)
}

// upload blob 写入失败映射为 ErrMediaUpload
func (r *Repository) upload(ctx context.Context, key string, file *model.FileUpload) error {
	if file == nil {
		return fmt.Errorf("%w: no file provided", storage.ErrMediaUpload)
	}
	start := time.Now()
	err := r.blobs.Put(ctx, key, file.Data, file.ContentType)
	r.log.BlobLog("put", key, len(file.Data), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrMediaUpload, err)
	}
	return nil
}

func (r *Repository) cleanupOrphan(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := r.blobs.Delete(ctx, key); err != nil {
		r.log.WithError(err).Warn("Orphan blob cleanup failed", "key", key)
	}
}

// ownedBlobKeys 枚举课程聚合名下的全部 blob key
func ownedBlobKeys(course *model.Course) []string {
	var keys []string
	if course.Image.IsBlob() {
		keys = append(keys, course.Image.Value)
	}
	for _, l := range course.Lessons {
		if l.Video.IsBlob() {
			keys = append(keys, l.Video.Value)
		}
		if l.Attachment.IsBlob() {
			keys = append(keys, l.Attachment.Value)
		}
	}
	return keys
}

func (r *Repository) publish(ctx context.Context, t eventbus.ChangeType, id string) {
	if r.bus == nil {
		return
	}
	err := r.bus.PublishChange(ctx, &eventbus.Change{
		Collection: eventbus.ColCourses,
		Type:       t,
		EntityID:   id,
		Timestamp:  time.Now(),
	})
	if err != nil {
		r.log.WithError(err).Warn("Change publish failed", "collection", eventbus.ColCourses)
	}
}
