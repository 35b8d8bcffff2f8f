package testutil

import (
	"fmt"
	"testing"
	"time"

	"learnhub/models"
	"learnhub/models/course"

	"gorm.io/gorm"
)

// Sample file bodies that pass mime sniffing.
var (
	PDFBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< >>\n%%EOF\n")
	PNGBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90wS\xde")
	TXTBytes = []byte("lesson notes\nsecond line\n")
)

func create(tb testing.TB, db *gorm.DB, v interface{}) {
	tb.Helper()
	if err := db.Create(v).Error; err != nil {
		tb.Fatalf("create fixture %T: %v", v, err)
	}
}

func Instructor(tb testing.TB, db *gorm.DB) models.Instructor {
	tb.Helper()
	seq := dbSeq.Add(1)
	in := models.Instructor{Name: fmt.Sprintf("Instructor %d", seq), Email: fmt.Sprintf("instructor%d@test.local", seq)}
	create(tb, db, &in)
	return in
}

func Student(tb testing.TB, db *gorm.DB, instructorID uint) models.Student {
	tb.Helper()
	seq := dbSeq.Add(1)
	st := models.Student{Name: fmt.Sprintf("Student %d", seq), Email: fmt.Sprintf("student%d@test.local", seq)}
	if instructorID != 0 {
		id := instructorID
		st.InstructorID = &id
	}
	create(tb, db, &st)
	return st
}

func Course(tb testing.TB, db *gorm.DB, instructorID uint, published bool) course.Course {
	tb.Helper()
	c := course.Course{
		InstructorID: instructorID,
		Title:        "Go Fundamentals",
		Category:     "programming",
		Level:        "beginner",
		Type:         course.TypeFree,
		IsPublished:  published,
	}
	create(tb, db, &c)
	return c
}

func Module(tb testing.TB, db *gorm.DB, courseID uint, orderIndex int) course.Module {
	tb.Helper()
	m := course.Module{CourseID: courseID, Title: fmt.Sprintf("Module %d", orderIndex), OrderIndex: orderIndex}
	create(tb, db, &m)
	return m
}

// Lesson inserts a lesson carrying one resource file per key.
func Lesson(tb testing.TB, db *gorm.DB, moduleID uint, orderIndex int, keys ...string) course.Lesson {
	tb.Helper()
	l := course.Lesson{ModuleID: moduleID, Title: fmt.Sprintf("Lesson %d", orderIndex), OrderIndex: orderIndex}
	for _, k := range keys {
		l.ResourceFiles = append(l.ResourceFiles, course.ResourceFile{
			URL: "https://cdn.test/" + k, Key: k, OriginalName: k, Size: 1, MimeType: "application/pdf",
		})
	}
	create(tb, db, &l)
	return l
}

func Video(tb testing.TB, db *gorm.DB, lessonID uint, orderIndex int, key string) course.LessonVideo {
	tb.Helper()
	v := course.LessonVideo{LessonID: lessonID, Title: fmt.Sprintf("Video %d", orderIndex), URL: "https://cdn.test/" + key, Key: key, OrderIndex: orderIndex}
	create(tb, db, &v)
	return v
}

func Enrollment(tb testing.TB, db *gorm.DB, studentID, courseID uint) course.Enrollment {
	tb.Helper()
	e := course.Enrollment{StudentID: studentID, CourseID: courseID, EnrolledAt: time.Now()}
	create(tb, db, &e)
	return e
}

func Progress(tb testing.TB, db *gorm.DB, enrollmentID, lessonID uint, completed bool) course.LessonProgress {
	tb.Helper()
	p := course.LessonProgress{EnrollmentID: enrollmentID, LessonID: lessonID, Completed: completed}
	if completed {
		now := time.Now()
		p.CompletedAt = &now
	}
	create(tb, db, &p)
	return p
}

// UintPtr is shorthand for optional ids in fixtures and inputs.
func UintPtr(v uint) *uint { return &v }
