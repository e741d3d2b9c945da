package model

import "time"

// UserRole 用户角色
type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleTeacher UserRole = "teacher"
	UserRoleStudent UserRole = "student"
)

// User 用户目录条目
//
// Credential 是仓储内部字段：查询接口返回前必须清空，
// JSON 序列化时永远不输出。Email 唯一且大小写敏感。
type User struct {
	ID         string    `json:"id" bson:"_id" db:"id"`
	Email      string    `json:"email" bson:"email" db:"email"`
	Name       string    `json:"name" bson:"name" db:"name"`
	Credential string    `json:"-" bson:"credential" db:"credential"` // bcrypt 哈希，never expose in JSON
	Role       UserRole  `json:"role" bson:"role" db:"role"`
	Photo      *MediaRef `json:"photo,omitempty" bson:"photo,omitempty" db:"-"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at" db:"updated_at"`
}

// Sanitized 返回去除凭据的副本，用于一切对外查询结果
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	clean := *u
	clean.Credential = ""
	return &clean
}

// UserPatch 用户部分更新
//
// nil 字段表示"保持不变"。Credential 为空字符串同样视为不变
// （目录层负责该判定），绝不解释为"清空凭据"。
type UserPatch struct {
	Name       *string   `json:"name,omitempty"`
	Email      *string   `json:"email,omitempty"`
	Credential *string   `json:"credential,omitempty"`
	Role       *UserRole `json:"role,omitempty"`
}
