// Package views 展示用连接视图
//
// 纯函数：对传入的快照做内存连接，不持状态、不落库。
// 悬空引用（用户/课程已删）降级为 Unknown 占位，连接永不失败。
package views

import "campus-catalog/internal/shared/model"

const (
	UnknownStudent = "Unknown Student"
	UnknownTeacher = "Unknown Teacher"
	UnknownCourse  = "Unknown Course"
)

// CourseWithTeacher 课程 + 教师展示名
type CourseWithTeacher struct {
	Course      *model.Course
	TeacherName string
}

// EnrollmentRow 选课记录 + 双侧展示名
type EnrollmentRow struct {
	Enrollment  *model.Enrollment
	StudentName string
	CourseTitle string
}

// CoursesWithTeacher 课程列表连接教师名
func CoursesWithTeacher(courses []*model.Course, users []*model.User) []*CourseWithTeacher {
	byID := userIndex(users)
	rows := make([]*CourseWithTeacher, 0, len(courses))
	for _, c := range courses {
		name := UnknownTeacher
		if u, ok := byID[c.TeacherID]; ok {
			name = u.Name
		}
		rows = append(rows, &CourseWithTeacher{Course: c, TeacherName: name})
	}
	return rows
}

// EnrollmentRows 选课台账连接学生名与课程标题
func EnrollmentRows(enrollments []*model.Enrollment, users []*model.User, courses []*model.Course) []*EnrollmentRow {
	usersByID := userIndex(users)
	coursesByID := courseIndex(courses)
	rows := make([]*EnrollmentRow, 0, len(enrollments))
	for _, e := range enrollments {
		row := &EnrollmentRow{
			Enrollment:  e,
			StudentName: UnknownStudent,
			CourseTitle: UnknownCourse,
		}
		if u, ok := usersByID[e.StudentID]; ok {
			row.StudentName = u.Name
		}
		if c, ok := coursesByID[e.CourseID]; ok {
			row.CourseTitle = c.Title
		}
		rows = append(rows, row)
	}
	return rows
}

// ApprovedCourses 学生已通过选课对应的课程（连接教师名）
//
// 选课指向的课程已删时整行跳过：没有课程就没有可展示的内容。
func ApprovedCourses(enrollments []*model.Enrollment, courses []*model.Course, users []*model.User) []*CourseWithTeacher {
	coursesByID := courseIndex(courses)
	usersByID := userIndex(users)
	var rows []*CourseWithTeacher
	for _, e := range enrollments {
		if e.Status != model.EnrollmentStatusApproved {
			continue
		}
		c, ok := coursesByID[e.CourseID]
		if !ok {
			continue
		}
		name := UnknownTeacher
		if u, ok := usersByID[c.TeacherID]; ok {
			name = u.Name
		}
		rows = append(rows, &CourseWithTeacher{Course: c, TeacherName: name})
	}
	return rows
}

func userIndex(users []*model.User) map[string]*model.User {
	byID := make(map[string]*model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID
}

func courseIndex(courses []*model.Course) map[string]*model.Course {
	byID := make(map[string]*model.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	return byID
}
