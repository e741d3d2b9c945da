package mongostore

import (
	"context"
	"time"

	"campus-catalog/internal/shared/model"
	"campus-catalog/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ============================================================================
// EnrollmentStore
// ============================================================================

// CreateEnrollment 组合唯一索引把 (student_id, course_id) 校验与插入
// 合并为一次原子写；既有记录无论状态都触发 ErrAlreadyEnrolled
func (s *Store) CreateEnrollment(ctx context.Context, e *model.Enrollment) error {
	err := insertOne(ctx, s.col(ColEnrollments), e)
	if mongo.IsDuplicateKeyError(err) {
		return storage.ErrAlreadyEnrolled
	}
	return err
}

func (s *Store) GetEnrollment(ctx context.Context, id string) (*model.Enrollment, error) {
	return findOne[model.Enrollment](ctx, s.col(ColEnrollments), bson.D{{Key: "_id", Value: id}})
}

// GetEnrollmentByPair 走组合索引的点查
func (s *Store) GetEnrollmentByPair(ctx context.Context, studentID, courseID string) (*model.Enrollment, error) {
	return findOne[model.Enrollment](ctx, s.col(ColEnrollments), bson.D{
		{Key: "student_id", Value: studentID},
		{Key: "course_id", Value: courseID},
	})
}

// UpdateEnrollmentStatus 无条件状态迁移
func (s *Store) UpdateEnrollmentStatus(ctx context.Context, id string, status model.EnrollmentStatus) error {
	return updateFields(ctx, s.col(ColEnrollments), id, bson.D{
		{Key: "status", Value: status},
		{Key: "updated_at", Value: time.Now().UTC()},
	})
}

func (s *Store) ListEnrollments(ctx context.Context) ([]*model.Enrollment, error) {
	return findMany[model.Enrollment](ctx, s.col(ColEnrollments), bson.D{}, byCreated())
}

func (s *Store) ListEnrollmentsByStudent(ctx context.Context, studentID string) ([]*model.Enrollment, error) {
	return findMany[model.Enrollment](ctx, s.col(ColEnrollments),
		bson.D{{Key: "student_id", Value: studentID}}, byCreated())
}
