package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-catalog/internal/shared/model"
)

func user(id, name string) *model.User {
	return &model.User{ID: id, Name: name}
}

func course(id, title, teacherID string) *model.Course {
	return &model.Course{ID: id, Title: title, TeacherID: teacherID}
}

func TestCoursesWithTeacher(t *testing.T) {
	users := []*model.User{user("teacher-1", "Tom")}
	courses := []*model.Course{
		course("course-1", "Go 101", "teacher-1"),
		course("course-2", "Web 101", "teacher-ghost"),
	}

	rows := CoursesWithTeacher(courses, users)
	require.Len(t, rows, 2)
	assert.Equal(t, "Tom", rows[0].TeacherName)
	assert.Equal(t, UnknownTeacher, rows[1].TeacherName)

	assert.Empty(t, CoursesWithTeacher(nil, users))
}

func TestEnrollmentRows(t *testing.T) {
	users := []*model.User{user("student-1", "Sara")}
	courses := []*model.Course{course("course-1", "Go 101", "teacher-1")}
	enrollments := []*model.Enrollment{
		{ID: "enroll-1", StudentID: "student-1", CourseID: "course-1", Status: model.EnrollmentStatusPending},
		{ID: "enroll-2", StudentID: "student-ghost", CourseID: "course-ghost", Status: model.EnrollmentStatusApproved},
	}

	rows := EnrollmentRows(enrollments, users, courses)
	require.Len(t, rows, 2)
	assert.Equal(t, "Sara", rows[0].StudentName)
	assert.Equal(t, "Go 101", rows[0].CourseTitle)
	assert.Equal(t, UnknownStudent, rows[1].StudentName)
	assert.Equal(t, UnknownCourse, rows[1].CourseTitle)
}

func TestApprovedCourses(t *testing.T) {
	users := []*model.User{user("teacher-1", "Tom")}
	courses := []*model.Course{course("course-1", "Go 101", "teacher-1")}
	enrollments := []*model.Enrollment{
		{ID: "enroll-1", StudentID: "s", CourseID: "course-1", Status: model.EnrollmentStatusApproved},
		{ID: "enroll-2", StudentID: "s", CourseID: "course-1", Status: model.EnrollmentStatusPending},
		// 课程已删的记录整行跳过
		{ID: "enroll-3", StudentID: "s", CourseID: "course-ghost", Status: model.EnrollmentStatusApproved},
	}

	rows := ApprovedCourses(enrollments, courses, users)
	require.Len(t, rows, 1)
	assert.Equal(t, "Go 101", rows[0].Course.Title)
	assert.Equal(t, "Tom", rows[0].TeacherName)
}
