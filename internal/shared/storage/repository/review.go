package repository

import (
	"context"

	"campus-catalog/internal/shared/model"
)

// CreateReview 追加评价
// 不做 (student_id, course_id) 唯一约束，也不校验评分范围：调用方自律
func (s *Store) CreateReview(ctx context.Context, r *model.Review) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO reviews (id, student_id, course_id, rating, comment, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`),
		r.ID, r.StudentID, r.CourseID, r.Rating, r.Comment, r.CreatedAt,
	)
	return err
}

// ListReviewsByCourse 返回指定课程的全部评价
func (s *Store) ListReviewsByCourse(ctx context.Context, courseID string) ([]*model.Review, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, student_id, course_id, rating, comment, created_at
		 FROM reviews WHERE course_id = $1 ORDER BY created_at, id`), courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []*model.Review{}
	for rows.Next() {
		r := &model.Review{}
		if err := rows.Scan(&r.ID, &r.StudentID, &r.CourseID, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}
