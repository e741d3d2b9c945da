package model

import "time"

// Review 课程评价
//
// 只追加：创建后不可修改、不可删除。仓储不校验评分范围，
// 也不限制同一学生对同一课程的多次评价（调用方自律）。
type Review struct {
	ID        string    `json:"id" bson:"_id" db:"id"`
	StudentID string    `json:"student_id" bson:"student_id" db:"student_id"`
	CourseID  string    `json:"course_id" bson:"course_id" db:"course_id"`
	Rating    int       `json:"rating" bson:"rating" db:"rating"`
	Comment   string    `json:"comment" bson:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" db:"created_at"`
}
