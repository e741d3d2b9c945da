package repository

import (
	"context"
	"database/sql"

	"campus-catalog/internal/shared/model"
	"campus-catalog/internal/shared/storage"
)

const userColumns = `id, email, name, credential, role, photo_kind, photo_value, created_at, updated_at`

// scanUser 从一行扫描用户
func scanUser(row interface{ Scan(...interface{}) error }) (*model.User, error) {
	u := &model.User{}
	var photoKind, photoValue sql.NullString
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Credential, &u.Role,
		&photoKind, &photoValue, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Photo = mediaFromColumns(photoKind, photoValue)
	return u, nil
}

// CreateUser 创建用户
// 邮箱唯一索引保证校验与插入原子，冲突映射为 ErrDuplicateEmail
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	photoKind, photoValue := mediaToColumns(user.Photo)
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO users (id, email, name, credential, role, photo_kind, photo_value, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`),
		user.ID, user.Email, user.Name, user.Credential, user.Role,
		photoKind, photoValue, user.CreatedAt, user.UpdatedAt,
	)
	if s.dialect.IsUniqueViolation(err, "email") {
		return storage.ErrDuplicateEmail
	}
	return err
}

// GetUserByID 通过 ID 查找用户，不存在时返回 (nil, nil)
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+userColumns+` FROM users WHERE id = $1`), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// GetUserByEmail 通过邮箱查找用户（大小写敏感的精确匹配）
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+userColumns+` FROM users WHERE email = $1`), email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// UpdateUser 整条覆写用户记录
func (s *Store) UpdateUser(ctx context.Context, user *model.User) error {
	photoKind, photoValue := mediaToColumns(user.Photo)
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE users SET email = $1, name = $2, credential = $3, role = $4,
		        photo_kind = $5, photo_value = $6, updated_at = $7
		 WHERE id = $8`),
		user.Email, user.Name, user.Credential, user.Role,
		photoKind, photoValue, user.UpdatedAt, user.ID,
	)
	if s.dialect.IsUniqueViolation(err, "email") {
		return storage.ErrDuplicateEmail
	}
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

// DeleteUser 删除目录条目；不级联引用它的课程/选课/评价
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM users WHERE id = $1`), id)
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

// ListUsers 返回全部用户
func (s *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id`))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers 用户总数（种子引导的空库判定）
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
