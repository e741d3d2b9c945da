package mongostore

import (
	"context"
	"fmt"

	"campus-catalog/internal/shared/model"
)

// SeedDemoData 写入演示数据批次
//
// MongoDB 多文档事务要求副本集，单机部署不可用；
// 这里按集合做有序批量插入，是该后端原生能力的上限
// （并发非目标：种子只在空库的首次运行路径上执行）。
func (s *Store) SeedDemoData(ctx context.Context, batch *model.SeedBatch) error {
	if batch.Empty() {
		return nil
	}

	if len(batch.Users) > 0 {
		docs := make([]interface{}, len(batch.Users))
		for i, u := range batch.Users {
			docs[i] = u
		}
		if _, err := s.col(ColUsers).InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
	}
	if len(batch.Courses) > 0 {
		docs := make([]interface{}, len(batch.Courses))
		for i, c := range batch.Courses {
			if c.Lessons == nil {
				c.Lessons = []*model.Lesson{}
			}
			for j, l := range c.Lessons {
				l.Order = j
			}
			docs[i] = c
		}
		if _, err := s.col(ColCourses).InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("seed courses: %w", err)
		}
	}
	if len(batch.Enrollments) > 0 {
		docs := make([]interface{}, len(batch.Enrollments))
		for i, e := range batch.Enrollments {
			docs[i] = e
		}
		if _, err := s.col(ColEnrollments).InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("seed enrollments: %w", err)
		}
	}
	if len(batch.Reviews) > 0 {
		docs := make([]interface{}, len(batch.Reviews))
		for i, r := range batch.Reviews {
			docs[i] = r
		}
		if _, err := s.col(ColReviews).InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("seed reviews: %w", err)
		}
	}
	return nil
}
