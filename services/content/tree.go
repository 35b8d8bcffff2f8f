package content

import (
	"learnhub/models/course"

	"gorm.io/gorm"
)

type LessonNode struct {
	course.Lesson
	Videos []course.LessonVideo `json:"videos"`
}

type ModuleNode struct {
	course.Module
	Lessons []LessonNode `json:"lessons"`
}

// CourseTree is a course with its ordered modules, lessons and videos.
// Counts are derived from the loaded rows.
type CourseTree struct {
	course.Course
	Modules     []ModuleNode `json:"modules"`
	ModuleCount int          `json:"module_count"`
	LessonCount int          `json:"lesson_count"`
}

// loadTree reads a course subtree in display order. lessonScope, when set,
// narrows which lessons are included.
func loadTree(db *gorm.DB, courseID uint, lessonScope func(*gorm.DB) *gorm.DB) (*CourseTree, error) {
	var c course.Course
	if err := db.First(&c, courseID).Error; err != nil {
		return nil, err
	}

	var modules []course.Module
	if err := db.Where("course_id = ?", courseID).Order("order_index asc, id asc").Find(&modules).Error; err != nil {
		return nil, err
	}
	tree := &CourseTree{Course: c, Modules: make([]ModuleNode, len(modules)), ModuleCount: len(modules)}
	if len(modules) == 0 {
		return tree, nil
	}

	moduleIDs := make([]uint, len(modules))
	moduleAt := make(map[uint]int, len(modules))
	for i, m := range modules {
		moduleIDs[i] = m.ID
		moduleAt[m.ID] = i
		tree.Modules[i] = ModuleNode{Module: m, Lessons: []LessonNode{}}
	}

	q := db.Where("module_id IN ?", moduleIDs)
	if lessonScope != nil {
		q = q.Scopes(lessonScope)
	}
	var lessons []course.Lesson
	if err := q.Order("module_id asc, order_index asc, id asc").Find(&lessons).Error; err != nil {
		return nil, err
	}
	if len(lessons) == 0 {
		return tree, nil
	}

	lessonIDs := make([]uint, len(lessons))
	for i, l := range lessons {
		lessonIDs[i] = l.ID
	}
	var videos []course.LessonVideo
	if err := db.Where("lesson_id IN ?", lessonIDs).Order("lesson_id asc, order_index asc, id asc").Find(&videos).Error; err != nil {
		return nil, err
	}
	byLesson := make(map[uint][]course.LessonVideo)
	for _, v := range videos {
		byLesson[v.LessonID] = append(byLesson[v.LessonID], v)
	}

	for _, l := range lessons {
		vids := byLesson[l.ID]
		if vids == nil {
			vids = []course.LessonVideo{}
		}
		i := moduleAt[l.ModuleID]
		tree.Modules[i].Lessons = append(tree.Modules[i].Lessons, LessonNode{Lesson: l, Videos: vids})
		tree.LessonCount++
	}
	return tree, nil
}
