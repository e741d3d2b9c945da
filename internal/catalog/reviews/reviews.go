// Package reviews 课程评价服务
//
// 只追加：没有修改和删除路径。评分范围与重复评价的限制
// 留给调用方，这里不做守卫。
package reviews

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"campus-catalog/internal/shared/eventbus"
	"campus-catalog/internal/shared/model"
	"campus-catalog/internal/shared/storage"
	"campus-catalog/pkg/logging"
)

// Store 评价服务
type Store struct {
	store storage.ReviewStore
	bus   eventbus.Bus
	log   *logging.Logger
}

// NewStore 创建评价服务
func NewStore(store storage.ReviewStore, bus eventbus.Bus, log *logging.Logger) *Store {
	if log == nil {
		log = logging.Default("reviews")
	}
	return &Store{store: store, bus: bus, log: log}
}

func generateID(prefix string) string {
	b := make([]byte, 6)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}

// Add 追加评价
func (s *Store) Add(ctx context.Context, studentID, courseID string, rating int, comment string) (*model.Review, error) {
	r := &model.Review{
		ID:        generateID("review"),
		StudentID: studentID,
		CourseID:  courseID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateReview(ctx, r); err != nil {
		return nil, err
	}

	if s.bus != nil {
		err := s.bus.PublishChange(ctx, &eventbus.Change{
			Collection: eventbus.ColReviews,
			Type:       eventbus.ChangeCreated,
			EntityID:   r.ID,
			Timestamp:  time.Now(),
		})
		if err != nil {
			s.log.WithError(err).Warn("Change publish failed", "collection", eventbus.ColReviews)
		}
	}
	return r, nil
}

// ListForCourse 指定课程的评价列表
func (s *Store) ListForCourse(ctx context.Context, courseID string) ([]*model.Review, error) {
	return s.store.ListReviewsByCourse(ctx, courseID)
}
