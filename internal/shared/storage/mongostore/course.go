package mongostore

import (
	"context"
	"time"

	"campus-catalog/internal/shared/model"
	"campus-catalog/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ============================================================================
// CourseStore
//
// 课时内嵌在课程文档里，lessons 数组顺序即存储顺序。
// 聚合级写操作都是单文档写入，由 MongoDB 的文档级原子性兜底。
// 并发语义为服务端 last-write-wins。
// ============================================================================

// CreateCourse 插入课程及其课时
func (s *Store) CreateCourse(ctx context.Context, course *model.Course) error {
	if course.Lessons == nil {
		course.Lessons = []*model.Lesson{}
	}
	for i, l := range course.Lessons {
		l.Order = i
	}
	return insertOne(ctx, s.col(ColCourses), course)
}

// GetCourse 读取课程聚合；不存在时 (nil, nil)
func (s *Store) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	c, err := findOne[model.Course](ctx, s.col(ColCourses), bson.D{{Key: "_id", Value: id}})
	if c != nil && c.Lessons == nil {
		c.Lessons = []*model.Lesson{}
	}
	return c, err
}

// UpdateCourseMeta 只更新课程元数据字段，不触碰 lessons 数组
func (s *Store) UpdateCourseMeta(ctx context.Context, course *model.Course) error {
	update := bson.D{
		{Key: "title", Value: course.Title},
		{Key: "description", Value: course.Description},
		{Key: "status", Value: course.Status},
		{Key: "updated_at", Value: course.UpdatedAt},
	}
	var ops bson.D
	if course.Image != nil {
		update = append(update, bson.E{Key: "image", Value: course.Image})
		ops = bson.D{{Key: "$set", Value: update}}
	} else {
		ops = bson.D{
			{Key: "$set", Value: update},
			{Key: "$unset", Value: bson.D{{Key: "image", Value: ""}}},
		}
	}

	res, err := s.col(ColCourses).UpdateOne(ctx, bson.D{{Key: "_id", Value: course.ID}}, ops)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteCourse 删除课程文档；内嵌课时随之消失，不会留下孤儿
func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColCourses), id)
}

func (s *Store) ListCoursesByStatus(ctx context.Context, status model.CourseStatus) ([]*model.Course, error) {
	return s.listCourses(ctx, bson.D{{Key: "status", Value: status}})
}

func (s *Store) ListCoursesByTeacher(ctx context.Context, teacherID string) ([]*model.Course, error) {
	return s.listCourses(ctx, bson.D{{Key: "teacher_id", Value: teacherID}})
}

func (s *Store) ListCourses(ctx context.Context) ([]*model.Course, error) {
	return s.listCourses(ctx, bson.D{})
}

func (s *Store) listCourses(ctx context.Context, filter bson.D) ([]*model.Course, error) {
	courses, err := findMany[model.Course](ctx, s.col(ColCourses), filter, byCreated())
	if err != nil {
		return nil, err
	}
	for _, c := range courses {
		if c.Lessons == nil {
			c.Lessons = []*model.Lesson{}
		}
	}
	return courses, nil
}

// AddLesson 追加课时到 lessons 数组末尾
// 序号取当前最大 order + 1：删除留下的空洞不回填，杜绝重复序号
func (s *Store) AddLesson(ctx context.Context, courseID string, lesson *model.Lesson) error {
	course, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if course == nil {
		return storage.ErrNotFound
	}

	next := 0
	for _, l := range course.Lessons {
		if l.Order >= next {
			next = l.Order + 1
		}
	}
	lesson.Order = next

	res, err := s.col(ColCourses).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: courseID}},
		bson.D{
			{Key: "$push", Value: bson.D{{Key: "lessons", Value: lesson}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpdateLesson 按位置操作符整条覆写数组元素，order 保持既有值
func (s *Store) UpdateLesson(ctx context.Context, courseID string, lesson *model.Lesson) error {
	course, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if course == nil {
		return storage.ErrNotFound
	}
	found := false
	for _, l := range course.Lessons {
		if l.ID == lesson.ID {
			lesson.Order = l.Order
			found = true
			break
		}
	}
	if !found {
		return storage.ErrNotFound
	}

	res, err := s.col(ColCourses).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: courseID}, {Key: "lessons.id", Value: lesson.ID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "lessons.$", Value: lesson},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteLesson 从数组中拔除课时；余下 order 允许空洞
// 过滤条件同时匹配课时，课程或课时缺席都报 ErrNotFound
func (s *Store) DeleteLesson(ctx context.Context, courseID, lessonID string) error {
	res, err := s.col(ColCourses).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: courseID}, {Key: "lessons.id", Value: lessonID}},
		bson.D{
			{Key: "$pull", Value: bson.D{{Key: "lessons", Value: bson.D{{Key: "id", Value: lessonID}}}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ReorderLessons 重建 lessons 数组后单文档覆写：要么整体生效要么不生效
func (s *Store) ReorderLessons(ctx context.Context, courseID string, orderedIDs []string) error {
	course, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if course == nil {
		return storage.ErrNotFound
	}

	byID := make(map[string]*model.Lesson, len(course.Lessons))
	for _, l := range course.Lessons {
		byID[l.ID] = l
	}
	if len(orderedIDs) != len(byID) {
		return storage.ErrInvalidOrder
	}
	reordered := make([]*model.Lesson, 0, len(orderedIDs))
	for pos, id := range orderedIDs {
		l, ok := byID[id]
		if !ok || l == nil {
			return storage.ErrInvalidOrder
		}
		byID[id] = nil // 标记已消费，拒绝载荷里的重复 id
		l.Order = pos
		reordered = append(reordered, l)
	}

	return updateFields(ctx, s.col(ColCourses), courseID, bson.D{
		{Key: "lessons", Value: reordered},
		{Key: "updated_at", Value: time.Now().UTC()},
	})
}
