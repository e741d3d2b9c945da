// Package mongostore 实现基于 MongoDB 的 CatalogStore
//
// 使用 mongo-go-driver v2，通过 bson tag 实现 model 结构体的序列化/反序列化。
// 所有 Collection 名称和索引在 ensureIndexes 中统一管理。
//
// 课时内嵌在课程文档的 lessons 数组中：追加/更新/重排/级联删除
// 都是单文档写入，天然原子。每条课时仍持久化整数 order 字段，
// 删除后允许序号空洞，任何时刻不写入重复序号。
package mongostore

import (
	"context"
	"fmt"
	"time"

	"campus-catalog/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection 名称常量
const (
	ColUsers       = "users"
	ColCourses     = "courses"
	ColEnrollments = "enrollments"
	ColReviews     = "reviews"
)

// Store 实现 storage.CatalogStore 接口的 MongoDB 驱动
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore 创建 MongoDB 存储实例
//
// uri: MongoDB 连接 URI，如 "mongodb://localhost:27017"
// dbName: 数据库名称，如 "campus_catalog"
func NewStore(uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: connect failed: %v", storage.ErrUnavailable, err)
	}

	// 验证连接
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("%w: ping failed: %v", storage.ErrUnavailable, err)
	}

	db := client.Database(dbName)
	s := &Store{client: client, db: db}

	// 创建索引；唯一索引是邮箱/选课组合不变式的承载者，失败必须上抛
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("mongostore: ensure indexes failed: %w", err)
	}

	return s, nil
}

// Close 关闭 MongoDB 连接
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// col 获取指定 Collection
func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// ensureIndexes 创建所有必要的索引
//
// 索引契约（与 repository 层的 SQL 索引一一对应）：
//   - users.email 唯一
//   - enrollments(student_id, course_id) 组合唯一
//   - courses.teacher_id、courses.status 非唯一
//   - reviews.course_id 非唯一
func (s *Store) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col    string
		keys   bson.D
		unique bool
	}

	indexes := []idx{
		// users
		{ColUsers, bson.D{{Key: "email", Value: 1}}, true},

		// courses
		{ColCourses, bson.D{{Key: "teacher_id", Value: 1}}, false},
		{ColCourses, bson.D{{Key: "status", Value: 1}}, false},

		// enrollments
		{ColEnrollments, bson.D{{Key: "student_id", Value: 1}, {Key: "course_id", Value: 1}}, true},

		// reviews
		{ColReviews, bson.D{{Key: "course_id", Value: 1}}, false},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}

	return nil
}
