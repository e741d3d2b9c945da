package courses

import (
	"context"
	"fmt"

	"campus-catalog/internal/shared/eventbus"
	"campus-catalog/internal/shared/model"
	"campus-catalog/internal/shared/storage"
)

// LessonInput 新建课时输入
//
// Video 接受文件或外部 URL（同时给出时构造方已折叠为文件优先）；
// Attachment 只接受文件。
type LessonInput struct {
	Title      string
	Content    string
	Duration   string
	Video      model.MediaUpdate
	Attachment *model.FileUpload
}

// AddLesson 追加课时到课程末尾
//
// 媒体先上传再写记录；Order 由存储层按当前最大序号赋值。
func (r *Repository) AddLesson(ctx context.Context, courseID string, in LessonInput) (*model.Lesson, error) {
	lesson := &model.Lesson{
		ID:       generateID("lesson"),
		Title:    in.Title,
		Content:  in.Content,
		Duration: in.Duration,
	}

	switch in.Video.Op {
	case model.MediaSetFile:
		key := videoKey(courseID, lesson.ID)
		if err := r.upload(ctx, key, in.Video.File); err != nil {
			return nil, err
		}
		lesson.Video = model.BlobRef(key)
		size := in.Video.File.SizeMB()
		lesson.VideoSizeMB = &size
	case model.MediaSetURL:
		lesson.Video = model.ExternalRef(in.Video.URL)
	}

	if in.Attachment != nil {
		key := attachmentKey(courseID, lesson.ID)
		if err := r.upload(ctx, key, in.Attachment); err != nil {
			return nil, err
		}
		lesson.Attachment = model.BlobRef(key)
		lesson.AttachmentName = in.Attachment.Name
		size := in.Attachment.SizeMB()
		lesson.AttachSizeMB = &size
	}

	if err := r.store.AddLesson(ctx, courseID, lesson); err != nil {
		return nil, err
	}

	r.publish(ctx, eventbus.ChangeUpdated, courseID)
	r.log.WithCourseID(courseID).Info("Lesson added", "lesson_id", lesson.ID, "title", lesson.Title)
	return lesson, nil
}

// UpdateLesson 更新课时
//
// 两个媒体槽各自按四态指令处理；记录提交后再清理被替换/移除的
// blob 对象（尽力而为）。
func (r *Repository) UpdateLesson(ctx context.Context, courseID, lessonID string, patch *model.LessonPatch) (*model.Lesson, error) {
	if patch == nil {
		patch = &model.LessonPatch{}
	}
	course, err := r.store.GetCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("lookup course: %w", err)
	}
	if course == nil {
		return nil, storage.ErrNotFound
	}

	var lesson *model.Lesson
	for _, l := range course.Lessons {
		if l.ID == lessonID {
			lesson = l
			break
		}
	}
	if lesson == nil {
		return nil, storage.ErrNotFound
	}

	var orphans []string

	switch patch.Video.Op {
	case model.MediaSetFile:
		key := videoKey(courseID, lessonID)
		// 旧 blob 不在固定 key 上时按孤儿清理
		if lesson.Video.IsBlob() && lesson.Video.Value != key {
			orphans = append(orphans, lesson.Video.Value)
		}
		if err := r.upload(ctx, key, patch.Video.File); err != nil {
			return nil, err
		}
		lesson.Video = model.BlobRef(key)
		size := patch.Video.File.SizeMB()
		lesson.VideoSizeMB = &size
	case model.MediaSetURL:
		if lesson.Video.IsBlob() {
			orphans = append(orphans, lesson.Video.Value)
		}
		lesson.Video = model.ExternalRef(patch.Video.URL)
		lesson.VideoSizeMB = nil
	case model.MediaRemove:
		if lesson.Video.IsBlob() {
			orphans = append(orphans, lesson.Video.Value)
		}
		lesson.Video = nil
		lesson.VideoSizeMB = nil
	}

	switch patch.Attach.Op {
	case model.MediaSetFile:
		key := attachmentKey(courseID, lessonID)
		if lesson.Attachment.IsBlob() && lesson.Attachment.Value != key {
			orphans = append(orphans, lesson.Attachment.Value)
		}
		if err := r.upload(ctx, key, patch.Attach.File); err != nil {
			return nil, err
		}
		lesson.Attachment = model.BlobRef(key)
		lesson.AttachmentName = patch.Attach.File.Name
		size := patch.Attach.File.SizeMB()
		lesson.AttachSizeMB = &size
	case model.MediaSetURL:
		// 附件槽不接受外部 URL
		return nil, fmt.Errorf("%w: attachment slot only accepts file uploads", storage.ErrMediaUpload)
	case model.MediaRemove:
		if lesson.Attachment.IsBlob() {
			orphans = append(orphans, lesson.Attachment.Value)
		}
		lesson.Attachment = nil
		lesson.AttachmentName = ""
		lesson.AttachSizeMB = nil
	}

	if patch.Title != nil {
		lesson.Title = *patch.Title
	}
	if patch.Content != nil {
		lesson.Content = *patch.Content
	}
	if patch.Duration != nil {
		lesson.Duration = *patch.Duration
	}

	if err := r.store.UpdateLesson(ctx, courseID, lesson); err != nil {
		return nil, err
	}

	for _, key := range orphans {
		r.cleanupOrphan(ctx, key)
	}

	r.publish(ctx, eventbus.ChangeUpdated, courseID)
	return lesson, nil
}

// DeleteLesson 删除课时
//
// 余下课时序号允许空洞；名下 blob 对象在记录删除后尽力清理。
func (r *Repository) DeleteLesson(ctx context.Context, courseID, lessonID string) error {
	course, err := r.store.GetCourse(ctx, courseID)
	if err != nil {
		return fmt.Errorf("lookup course: %w", err)
	}
	if course == nil {
		return storage.ErrNotFound
	}

	var lesson *model.Lesson
	for _, l := range course.Lessons {
		if l.ID == lessonID {
			lesson = l
			break
		}
	}
	if lesson == nil {
		return storage.ErrNotFound
	}

	if err := r.store.DeleteLesson(ctx, courseID, lessonID); err != nil {
		return err
	}

	if lesson.Video.IsBlob() {
		r.cleanupOrphan(ctx, lesson.Video.Value)
	}
	if lesson.Attachment.IsBlob() {
		r.cleanupOrphan(ctx, lesson.Attachment.Value)
	}

	r.publish(ctx, eventbus.ChangeUpdated, courseID)
	r.log.WithCourseID(courseID).Info("Lesson deleted", "lesson_id", lessonID)
	return nil
}

// ReorderLessons 按给定 id 序列重排课时
//
// orderedIDs 必须恰为当前课时 id 集合的置换，否则 ErrInvalidOrder
// 且顺序不变；成功时原子生效。
func (r *Repository) ReorderLessons(ctx context.Context, courseID string, orderedIDs []string) error {
	if err := r.store.ReorderLessons(ctx, courseID, orderedIDs); err != nil {
		return err
	}
	r.publish(ctx, eventbus.ChangeUpdated, courseID)
	return nil
}
