package content

import (
	"learnhub/models/community"
	"learnhub/models/course"

	"gorm.io/gorm"
)

// The purge helpers delete a subtree inside tx and return the asset keys it
// referenced. Blobs are released by the caller once tx has committed.

func purgeLessons(tx *gorm.DB, lessonIDs []uint) ([]string, error) {
	if len(lessonIDs) == 0 {
		return nil, nil
	}

	var keys []string
	var lessons []course.Lesson
	if err := tx.Select("id", "resource_files").Where("id IN ?", lessonIDs).Find(&lessons).Error; err != nil {
		return nil, err
	}
	for _, l := range lessons {
		keys = append(keys, l.AssetKeys()...)
	}

	var videoKeys []string
	if err := tx.Model(&course.LessonVideo{}).Where("lesson_id IN ? AND object_key <> ''", lessonIDs).Pluck("object_key", &videoKeys).Error; err != nil {
		return nil, err
	}
	keys = append(keys, videoKeys...)

	if err := tx.Where("lesson_id IN ?", lessonIDs).Delete(&course.LessonProgress{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("lesson_id IN ?", lessonIDs).Delete(&course.LessonVideo{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("id IN ?", lessonIDs).Delete(&course.Lesson{}).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

func purgeModules(tx *gorm.DB, moduleIDs []uint) ([]string, error) {
	if len(moduleIDs) == 0 {
		return nil, nil
	}

	var lessonIDs []uint
	if err := tx.Model(&course.Lesson{}).Where("module_id IN ?", moduleIDs).Pluck("id", &lessonIDs).Error; err != nil {
		return nil, err
	}
	keys, err := purgeLessons(tx, lessonIDs)
	if err != nil {
		return nil, err
	}
	if err := tx.Where("id IN ?", moduleIDs).Delete(&course.Module{}).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

func purgeCourse(tx *gorm.DB, c *course.Course) ([]string, error) {
	var moduleIDs []uint
	if err := tx.Model(&course.Module{}).Where("course_id = ?", c.ID).Pluck("id", &moduleIDs).Error; err != nil {
		return nil, err
	}
	keys, err := purgeModules(tx, moduleIDs)
	if err != nil {
		return nil, err
	}

	enrollments := tx.Model(&course.Enrollment{}).Select("id").Where("course_id = ?", c.ID)
	if err := tx.Where("enrollment_id IN (?)", enrollments).Delete(&course.LessonProgress{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("course_id = ?", c.ID).Delete(&course.Enrollment{}).Error; err != nil {
		return nil, err
	}
	// communities outlive the course they were attached to
	if err := tx.Model(&community.Community{}).Where("course_id = ?", c.ID).Update("course_id", nil).Error; err != nil {
		return nil, err
	}
	if err := tx.Delete(&course.Course{}, c.ID).Error; err != nil {
		return nil, err
	}
	if c.ThumbnailKey != "" {
		keys = append(keys, c.ThumbnailKey)
	}
	return keys, nil
}
