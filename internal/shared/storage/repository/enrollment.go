package repository

import (
	"context"
	"database/sql"

	"campus-catalog/internal/shared/model"
	"campus-catalog/internal/shared/storage"
)

const enrollmentColumns = `id, student_id, course_id, status, created_at, updated_at`

func scanEnrollment(row interface{ Scan(...interface{}) error }) (*model.Enrollment, error) {
	e := &model.Enrollment{}
	err := row.Scan(&e.ID, &e.StudentID, &e.CourseID, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// CreateEnrollment 创建选课记录
// (student_id, course_id) 唯一索引保证校验与插入原子，
// 既有记录无论状态（含 Rejected）都触发 ErrAlreadyEnrolled
func (s *Store) CreateEnrollment(ctx context.Context, e *model.Enrollment) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO enrollments (id, student_id, course_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`),
		e.ID, e.StudentID, e.CourseID, e.Status, e.CreatedAt, e.UpdatedAt,
	)
	if s.dialect.IsUniqueViolation(err, "enrollments") {
		return storage.ErrAlreadyEnrolled
	}
	return err
}

// GetEnrollment 通过 ID 查找，不存在时 (nil, nil)
func (s *Store) GetEnrollment(ctx context.Context, id string) (*model.Enrollment, error) {
	e, err := scanEnrollment(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE id = $1`), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// GetEnrollmentByPair 组合索引点查
func (s *Store) GetEnrollmentByPair(ctx context.Context, studentID, courseID string) (*model.Enrollment, error) {
	e, err := scanEnrollment(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE student_id = $1 AND course_id = $2`),
		studentID, courseID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// UpdateEnrollmentStatus 无条件状态迁移
func (s *Store) UpdateEnrollmentStatus(ctx context.Context, id string, status model.EnrollmentStatus) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE enrollments SET status = $1, updated_at = `+s.dialect.CurrentTimestamp()+` WHERE id = $2`),
		status, id)
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

// ListEnrollments 返回全部选课记录
func (s *Store) ListEnrollments(ctx context.Context) ([]*model.Enrollment, error) {
	return s.listEnrollments(ctx, ``)
}

// ListEnrollmentsByStudent 返回指定学生的选课记录
func (s *Store) ListEnrollmentsByStudent(ctx context.Context, studentID string) ([]*model.Enrollment, error) {
	return s.listEnrollments(ctx, `WHERE student_id = $1`, studentID)
}

func (s *Store) listEnrollments(ctx context.Context, where string, args ...interface{}) ([]*model.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments ` + where + ` ORDER BY created_at, id`
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*model.Enrollment{}
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
