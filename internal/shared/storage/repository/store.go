// Package repository 数据库无关的目录存储实现
//
// 通过 dbutil.Dialect 接口屏蔽不同数据库的 SQL 差异，
// 所有 SQL 以 PostgreSQL 风格编写，运行时由 Dialect.Rebind() 转换。
// 嵌入式部署用 driver/sqlite，服务端关系型部署用 driver/postgres。
package repository

import (
	"context"
	"database/sql"

	"campus-catalog/internal/shared/model"
	"campus-catalog/internal/shared/storage/dbutil"
)

// Store 通用存储实现
// 实现了 storage.CatalogStore 接口
type Store struct {
	db      *sql.DB
	dialect dbutil.Dialect
}

// NewStore 创建通用存储
func NewStore(db *sql.DB, dialect dbutil.Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	return s.db.Close()
}

// DB 返回底层数据库连接（仅用于测试）
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect 返回当前方言
func (s *Store) Dialect() dbutil.Dialect {
	return s.dialect
}

// rebind 快捷方法：将 PG 风格 SQL 转换为当前方言
func (s *Store) rebind(query string) string {
	return s.dialect.Rebind(query)
}

// inTx 在单个事务内执行 fn，出错回滚
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// mediaColumns 把可空的 (kind, value) 列对还原为 MediaRef
func mediaFromColumns(kind, value sql.NullString) *model.MediaRef {
	if !kind.Valid || kind.String == "" {
		return nil
	}
	return &model.MediaRef{Kind: model.MediaKind(kind.String), Value: value.String}
}

// mediaToColumns 把 MediaRef 拆为可空列对
func mediaToColumns(ref *model.MediaRef) (interface{}, interface{}) {
	if ref == nil {
		return nil, nil
	}
	return string(ref.Kind), ref.Value
}
