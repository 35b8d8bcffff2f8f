package course

import (
	"learnhub/models"

	"gorm.io/datatypes"
)

// ResourceFile points at a blob in the asset store.
type ResourceFile struct {
	URL          string `json:"url"`
	Key          string `json:"key"`
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mime_type"`
}

// Lesson is the leaf of the content hierarchy.
type Lesson struct {
	models.Model
	ModuleID        uint                              `json:"module_id" gorm:"not null;uniqueIndex:idx_lessons_module_order"`
	Title           string                            `json:"title" gorm:"not null"`
	Description     string                            `json:"description" gorm:"type:text"`
	Content         string                            `json:"content" gorm:"type:text"`
	DurationSeconds int                               `json:"duration_seconds"`
	AllowPreview    bool                              `json:"allow_preview"`
	OrderIndex      int                               `json:"order_index" gorm:"not null;uniqueIndex:idx_lessons_module_order"`
	ResourceFiles   datatypes.JSONSlice[ResourceFile] `json:"resource_files"`

	Module *Module `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// AssetKeys lists the storage keys referenced by the lesson's resource files.
func (l Lesson) AssetKeys() []string {
	keys := make([]string, 0, len(l.ResourceFiles))
	for _, f := range l.ResourceFiles {
		if f.Key != "" {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// LessonVideo is a video reference inside a lesson, ordered like any other sibling set.
// Key is empty for externally hosted videos.
type LessonVideo struct {
	models.Model
	LessonID        uint   `json:"lesson_id" gorm:"not null;uniqueIndex:idx_lesson_videos_lesson_order"`
	Title           string `json:"title"`
	URL             string `json:"url"`
	Key             string `json:"key,omitempty" gorm:"column:object_key"`
	MimeType        string `json:"mime_type,omitempty"`
	DurationSeconds int    `json:"duration_seconds"`
	OrderIndex      int    `json:"order_index" gorm:"not null;uniqueIndex:idx_lesson_videos_lesson_order"`

	Lesson *Lesson `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}
