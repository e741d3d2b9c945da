package mongostore

import (
	"context"

	"campus-catalog/internal/shared/model"
	"campus-catalog/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ============================================================================
// UserStore
// ============================================================================

// CreateUser 唯一索引把邮箱校验与插入合并为一次原子写
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	err := insertOne(ctx, s.col(ColUsers), user)
	if mongo.IsDuplicateKeyError(err) {
		return storage.ErrDuplicateEmail
	}
	return err
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "email", Value: email}})
}

// UpdateUser 整条覆写；改邮箱撞上唯一索引同样映射为 ErrDuplicateEmail
func (s *Store) UpdateUser(ctx context.Context, user *model.User) error {
	res, err := s.col(ColUsers).ReplaceOne(ctx, bson.D{{Key: "_id", Value: user.ID}}, user)
	if mongo.IsDuplicateKeyError(err) {
		return storage.ErrDuplicateEmail
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColUsers), id)
}

func (s *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	return findMany[model.User](ctx, s.col(ColUsers), bson.D{}, byCreated())
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	return s.col(ColUsers).CountDocuments(ctx, bson.D{})
}
