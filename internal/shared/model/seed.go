package model

// SeedBatch 首次运行的演示数据批次
//
// 所有记录在媒体资产全部就位（成功或已降级）之后一次性提交。
type SeedBatch struct {
	Users       []*User
	Courses     []*Course
	Enrollments []*Enrollment
	Reviews     []*Review
}

// Empty 批次是否为空
func (b *SeedBatch) Empty() bool {
	return b == nil ||
		len(b.Users) == 0 && len(b.Courses) == 0 &&
			len(b.Enrollments) == 0 && len(b.Reviews) == 0
}
