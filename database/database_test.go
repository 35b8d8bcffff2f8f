package database

import (
	"path/filepath"
	"testing"

	"learnhub/config"
	"learnhub/logger"
	"learnhub/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestConnectDbSqlite(t *testing.T) {
	cfg := &config.Config{
		DBDriver: "sqlite",
		DBDSN:    filepath.Join(t.TempDir(), "learnhub.db"),
	}

	db, err := ConnectDb(cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	for _, table := range []string{"courses", "modules", "lessons", "lesson_videos", "enrollments", "lesson_progress", "community_messages", "orphan_assets"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	c := course.Course{InstructorID: 1, Title: "Go"}
	require.NoError(t, db.Create(&c).Error)

	// the sibling uniqueness constraint is what turns racing appends into retries
	require.NoError(t, db.Create(&course.Module{CourseID: c.ID, Title: "a", OrderIndex: 0}).Error)
	err = db.Create(&course.Module{CourseID: c.ID, Title: "b", OrderIndex: 0}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestContentRowsCannotOutliveTheirParent(t *testing.T) {
	db, err := ConnectDb(&config.Config{DBDriver: "sqlite", DBDSN: filepath.Join(t.TempDir(), "learnhub.db")}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	for _, fk := range []struct {
		model interface{}
		name  string
	}{
		{&course.Module{}, "Course"},
		{&course.Lesson{}, "Module"},
		{&course.LessonVideo{}, "Lesson"},
		{&course.Enrollment{}, "Course"},
		{&course.LessonProgress{}, "Enrollment"},
		{&course.LessonProgress{}, "Lesson"},
	} {
		assert.True(t, db.Migrator().HasConstraint(fk.model, fk.name), "%T.%s", fk.model, fk.name)
	}

	// an insert under a parent that is already gone is rejected
	assert.Error(t, db.Create(&course.Lesson{ModuleID: 9999, Title: "orphan"}).Error)
	assert.Error(t, db.Create(&course.Enrollment{StudentID: 1, CourseID: 9999}).Error)

	c := course.Course{InstructorID: 1, Title: "Go"}
	require.NoError(t, db.Create(&c).Error)
	m := course.Module{CourseID: c.ID, Title: "Basics"}
	require.NoError(t, db.Create(&m).Error)
	l := course.Lesson{ModuleID: m.ID, Title: "Hello"}
	require.NoError(t, db.Create(&l).Error)
	e := course.Enrollment{StudentID: 1, CourseID: c.ID}
	require.NoError(t, db.Create(&e).Error)
	require.NoError(t, db.Create(&course.LessonProgress{EnrollmentID: e.ID, LessonID: l.ID, Completed: true}).Error)

	require.NoError(t, db.Delete(&course.Course{}, c.ID).Error)
	for _, model := range []interface{}{&course.Module{}, &course.Lesson{}, &course.Enrollment{}, &course.LessonProgress{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n, "%T", model)
	}
}

func TestConnectDbRejectsUnknownDriver(t *testing.T) {
	_, err := ConnectDb(&config.Config{DBDriver: "oracle"}, logger.Nop())
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}
