package mongostore

import (
	"context"

	"campus-catalog/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ============================================================================
// ReviewStore（只追加）
// ============================================================================

func (s *Store) CreateReview(ctx context.Context, r *model.Review) error {
	return insertOne(ctx, s.col(ColReviews), r)
}

func (s *Store) ListReviewsByCourse(ctx context.Context, courseID string) ([]*model.Review, error) {
	return findMany[model.Review](ctx, s.col(ColReviews),
		bson.D{{Key: "course_id", Value: courseID}}, byCreated())
}
