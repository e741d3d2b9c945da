package model

import "time"

// EnrollmentStatus 选课状态
//
// Pending 是唯一初始状态；Approved/Rejected 均可自 Pending 到达。
// 仓储层不设进一步的状态机守卫，调用方是唯一闸口。
type EnrollmentStatus string

const (
	EnrollmentStatusPending  EnrollmentStatus = "pending"
	EnrollmentStatusApproved EnrollmentStatus = "approved"
	EnrollmentStatusRejected EnrollmentStatus = "rejected"
)

// Enrollment 选课记录
//
// 不变式：(StudentID, CourseID) 组合唯一，且与插入原子地校验。
// 已 Rejected 的记录同样占用该组合，不能经 Create 重新提交。
type Enrollment struct {
	ID        string           `json:"id" bson:"_id" db:"id"`
	StudentID string           `json:"student_id" bson:"student_id" db:"student_id"`
	CourseID  string           `json:"course_id" bson:"course_id" db:"course_id"`
	Status    EnrollmentStatus `json:"status" bson:"status" db:"status"`
	CreatedAt time.Time        `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" bson:"updated_at" db:"updated_at"`
}
