package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"campus-catalog/internal/shared/model"
	"campus-catalog/internal/shared/storage"
)

const courseColumns = `id, title, description, teacher_id, status, image_kind, image_value, created_at, updated_at`

const lessonColumns = `id, course_id, title, content, video_kind, video_value, video_size_mb,
	attachment_kind, attachment_value, attachment_name, attachment_size_mb, duration, position`

// scanCourse 从一行扫描课程（不含课时）
func scanCourse(row interface{ Scan(...interface{}) error }) (*model.Course, error) {
	c := &model.Course{Lessons: []*model.Lesson{}}
	var imageKind, imageValue sql.NullString
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.TeacherID, &c.Status,
		&imageKind, &imageValue, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Image = mediaFromColumns(imageKind, imageValue)
	return c, nil
}

// scanLesson 从一行扫描课时（含所属课程 id）
func scanLesson(row interface{ Scan(...interface{}) error }) (string, *model.Lesson, error) {
	l := &model.Lesson{}
	var courseID string
	var videoKind, videoValue, attachKind, attachValue sql.NullString
	var videoSize, attachSize sql.NullFloat64
	var attachName, duration sql.NullString
	err := row.Scan(&l.ID, &courseID, &l.Title, &l.Content,
		&videoKind, &videoValue, &videoSize,
		&attachKind, &attachValue, &attachName, &attachSize,
		&duration, &l.Order)
	if err != nil {
		return "", nil, err
	}
	l.Video = mediaFromColumns(videoKind, videoValue)
	l.Attachment = mediaFromColumns(attachKind, attachValue)
	if videoSize.Valid {
		v := videoSize.Float64
		l.VideoSizeMB = &v
	}
	if attachSize.Valid {
		v := attachSize.Float64
		l.AttachSizeMB = &v
	}
	l.AttachmentName = attachName.String
	l.Duration = duration.String
	return courseID, l, nil
}

// execer 事务与连接共用的最小执行接口
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// insertLesson 插入单条课时
func (s *Store) insertLesson(ctx context.Context, q execer, courseID string, l *model.Lesson) error {
	videoKind, videoValue := mediaToColumns(l.Video)
	attachKind, attachValue := mediaToColumns(l.Attachment)
	_, err := q.ExecContext(ctx, s.rebind(
		`INSERT INTO lessons (id, course_id, title, content, video_kind, video_value, video_size_mb,
		        attachment_kind, attachment_value, attachment_name, attachment_size_mb, duration, position)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`),
		l.ID, courseID, l.Title, l.Content, videoKind, videoValue, l.VideoSizeMB,
		attachKind, attachValue, nullIfEmpty(l.AttachmentName), l.AttachSizeMB,
		nullIfEmpty(l.Duration), l.Order,
	)
	return err
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// CreateCourse 插入课程及其课时，单事务提交
func (s *Store) CreateCourse(ctx context.Context, course *model.Course) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		imageKind, imageValue := mediaToColumns(course.Image)
		_, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO courses (id, title, description, teacher_id, status, image_kind, image_value, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`),
			course.ID, course.Title, course.Description, course.TeacherID, course.Status,
			imageKind, imageValue, course.CreatedAt, course.UpdatedAt,
		)
		if err != nil {
			return err
		}
		for i, l := range course.Lessons {
			l.Order = i
			if err := s.insertLesson(ctx, tx, course.ID, l); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetCourse 读取课程聚合，课时按存储顺序返回；不存在时 (nil, nil)
func (s *Store) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	c, err := scanCourse(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+courseColumns+` FROM courses WHERE id = $1`), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.attachLessons(ctx, []*model.Course{c}); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCourseMeta 覆写课程元数据，不触碰课时
func (s *Store) UpdateCourseMeta(ctx context.Context, course *model.Course) error {
	imageKind, imageValue := mediaToColumns(course.Image)
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE courses SET title = $1, description = $2, status = $3,
		        image_kind = $4, image_value = $5, updated_at = $6
		 WHERE id = $7`),
		course.Title, course.Description, course.Status,
		imageKind, imageValue, course.UpdatedAt, course.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteCourse 删除课程并级联删除全部课时
func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM lessons WHERE course_id = $1`), id)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM courses WHERE id = $1`), id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

// ListCoursesByStatus 按状态过滤（公开浏览面用 Published）
func (s *Store) ListCoursesByStatus(ctx context.Context, status model.CourseStatus) ([]*model.Course, error) {
	return s.listCourses(ctx, `WHERE status = $1`, status)
}

// ListCoursesByTeacher 按授课教师过滤
func (s *Store) ListCoursesByTeacher(ctx context.Context, teacherID string) ([]*model.Course, error) {
	return s.listCourses(ctx, `WHERE teacher_id = $1`, teacherID)
}

// ListCourses 返回全部课程
func (s *Store) ListCourses(ctx context.Context) ([]*model.Course, error) {
	return s.listCourses(ctx, ``)
}

func (s *Store) listCourses(ctx context.Context, where string, args ...interface{}) ([]*model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses ` + where + ` ORDER BY created_at, id`
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := []*model.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachLessons(ctx, courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// attachLessons 批量装载课时并按 position 顺序挂到所属课程
func (s *Store) attachLessons(ctx context.Context, courses []*model.Course) error {
	if len(courses) == 0 {
		return nil
	}
	byID := make(map[string]*model.Course, len(courses))
	placeholders := make([]string, len(courses))
	args := make([]interface{}, len(courses))
	for i, c := range courses {
		c.Lessons = []*model.Lesson{}
		byID[c.ID] = c
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = c.ID
	}

	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE course_id IN (` +
		strings.Join(placeholders, ", ") + `) ORDER BY course_id, position`
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		courseID, l, err := scanLesson(rows)
		if err != nil {
			return err
		}
		if c, ok := byID[courseID]; ok {
			c.Lessons = append(c.Lessons, l)
		}
	}
	return rows.Err()
}

// AddLesson 追加课时到当前顺序末尾
// 序号取 MAX(position)+1：删除留下的空洞不会被回填，杜绝重复序号
func (s *Store) AddLesson(ctx context.Context, courseID string, lesson *model.Lesson) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, s.rebind(
			`SELECT COUNT(*) FROM courses WHERE id = $1`), courseID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists == 0 {
			return storage.ErrNotFound
		}

		var next sql.NullInt64
		err = tx.QueryRowContext(ctx, s.rebind(
			`SELECT MAX(position) + 1 FROM lessons WHERE course_id = $1`), courseID).Scan(&next)
		if err != nil {
			return err
		}
		lesson.Order = int(next.Int64) // NULL → 0

		return s.insertLesson(ctx, tx, courseID, lesson)
	})
}

// UpdateLesson 整条覆写指定课时，position 保持既有值
func (s *Store) UpdateLesson(ctx context.Context, courseID string, lesson *model.Lesson) error {
	videoKind, videoValue := mediaToColumns(lesson.Video)
	attachKind, attachValue := mediaToColumns(lesson.Attachment)
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE lessons SET title = $1, content = $2,
		        video_kind = $3, video_value = $4, video_size_mb = $5,
		        attachment_kind = $6, attachment_value = $7, attachment_name = $8, attachment_size_mb = $9,
		        duration = $10
		 WHERE id = $11 AND course_id = $12`),
		lesson.Title, lesson.Content,
		videoKind, videoValue, lesson.VideoSizeMB,
		attachKind, attachValue, nullIfEmpty(lesson.AttachmentName), lesson.AttachSizeMB,
		nullIfEmpty(lesson.Duration), lesson.ID, courseID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteLesson 从顺序中移除课时；余下序号允许空洞
func (s *Store) DeleteLesson(ctx context.Context, courseID, lessonID string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`DELETE FROM lessons WHERE id = $1 AND course_id = $2`), lessonID, courseID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ReorderLessons 原子重排课时顺序
// orderedIDs 必须恰为当前课时 id 集合的置换，否则 ErrInvalidOrder 且顺序不变
func (s *Store) ReorderLessons(ctx context.Context, courseID string, orderedIDs []string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, s.rebind(
			`SELECT COUNT(*) FROM courses WHERE id = $1`), courseID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return storage.ErrNotFound
		}

		rows, err := tx.QueryContext(ctx, s.rebind(
			`SELECT id FROM lessons WHERE course_id = $1`), courseID)
		if err != nil {
			return err
		}
		current := map[string]bool{}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			current[id] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		if !isPermutation(current, orderedIDs) {
			return storage.ErrInvalidOrder
		}

		for pos, id := range orderedIDs {
			if _, err := tx.ExecContext(ctx, s.rebind(
				`UPDATE lessons SET position = $1 WHERE id = $2 AND course_id = $3`),
				pos, id, courseID); err != nil {
				return err
			}
		}
		return nil
	})
}

// isPermutation orderedIDs 与 current 集合完全等价且无重复
func isPermutation(current map[string]bool, orderedIDs []string) bool {
	if len(orderedIDs) != len(current) {
		return false
	}
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if !current[id] || seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}
