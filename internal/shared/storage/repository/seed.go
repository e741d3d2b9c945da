package repository

import (
	"context"
	"database/sql"

	"campus-catalog/internal/shared/model"
)

// SeedDemoData 在单个事务内写入整个演示数据批次
// 任一插入失败则全部回滚，不会留下半个种子数据集
func (s *Store) SeedDemoData(ctx context.Context, batch *model.SeedBatch) error {
	if batch.Empty() {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, u := range batch.Users {
			photoKind, photoValue := mediaToColumns(u.Photo)
			_, err := tx.ExecContext(ctx, s.rebind(
				`INSERT INTO users (id, email, name, credential, role, photo_kind, photo_value, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`),
				u.ID, u.Email, u.Name, u.Credential, u.Role, photoKind, photoValue, u.CreatedAt, u.UpdatedAt)
			if err != nil {
				return err
			}
		}
		for _, c := range batch.Courses {
			imageKind, imageValue := mediaToColumns(c.Image)
			_, err := tx.ExecContext(ctx, s.rebind(
				`INSERT INTO courses (id, title, description, teacher_id, status, image_kind, image_value, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`),
				c.ID, c.Title, c.Description, c.TeacherID, c.Status, imageKind, imageValue, c.CreatedAt, c.UpdatedAt)
			if err != nil {
				return err
			}
			for i, l := range c.Lessons {
				l.Order = i
				if err := s.insertLesson(ctx, tx, c.ID, l); err != nil {
					return err
				}
			}
		}
		for _, e := range batch.Enrollments {
			_, err := tx.ExecContext(ctx, s.rebind(
				`INSERT INTO enrollments (id, student_id, course_id, status, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6)`),
				e.ID, e.StudentID, e.CourseID, e.Status, e.CreatedAt, e.UpdatedAt)
			if err != nil {
				return err
			}
		}
		for _, r := range batch.Reviews {
			_, err := tx.ExecContext(ctx, s.rebind(
				`INSERT INTO reviews (id, student_id, course_id, rating, comment, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6)`),
				r.ID, r.StudentID, r.CourseID, r.Rating, r.Comment, r.CreatedAt)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
