package content

import (
	"strings"

	"learnhub/apperr"
)

type CourseInput struct {
	Title       string  `json:"title" validate:"notblank"`
	Description string  `json:"description"`
	Category    string  `json:"category" validate:"notblank"`
	Level       string  `json:"level" validate:"notblank"`
	Type        string  `json:"type" validate:"notblank,oneof=free paid"`
	Price       float64 `json:"price" validate:"gte=0"`
}

// CoursePatch carries only the fields to change; nil means untouched.
type CoursePatch struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Level       *string  `json:"level"`
	Type        *string  `json:"type"`
	Price       *float64 `json:"price"`
}

type ModuleInput struct {
	Title       string `json:"title" validate:"notblank"`
	Description string `json:"description"`
	Position    *int   `json:"position"`
}

type ModulePatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type LessonInput struct {
	Title           string `json:"title" form:"title" validate:"notblank"`
	Description     string `json:"description" form:"description"`
	Content         string `json:"content" form:"content"`
	DurationSeconds int    `json:"duration_seconds" form:"duration_seconds" validate:"gte=0"`
	AllowPreview    bool   `json:"allow_preview" form:"allow_preview"`
	Position        *int   `json:"position" form:"position"`
}

type LessonPatch struct {
	Title           *string `json:"title" form:"title"`
	Description     *string `json:"description" form:"description"`
	Content         *string `json:"content" form:"content"`
	DurationSeconds *int    `json:"duration_seconds" form:"duration_seconds"`
	AllowPreview    *bool   `json:"allow_preview" form:"allow_preview"`
}

type VideoInput struct {
	Title           string `json:"title" form:"title"`
	URL             string `json:"url" form:"url"`
	DurationSeconds int    `json:"duration_seconds" form:"duration_seconds" validate:"gte=0"`
	Position        *int   `json:"position" form:"position"`
}

// patch accumulates column updates and the validation failures found on the way.
type patch struct {
	updates map[string]interface{}
	fields  map[string]string
}

func newPatch() *patch {
	return &patch{updates: map[string]interface{}{}, fields: map[string]string{}}
}

func (p *patch) required(column, name string, v *string) {
	if v == nil {
		return
	}
	if strings.TrimSpace(*v) == "" {
		p.fields[name] = name + " cannot be empty!"
		return
	}
	p.updates[column] = strings.TrimSpace(*v)
}

func (p *patch) optional(column string, v *string) {
	if v != nil {
		p.updates[column] = *v
	}
}

func (p *patch) set(column string, v interface{}) {
	p.updates[column] = v
}

func (p *patch) err() error {
	if len(p.fields) > 0 {
		return apperr.Validation(p.fields)
	}
	return nil
}

func (in CoursePatch) build() *patch {
	p := newPatch()
	p.required("title", "title", in.Title)
	p.optional("description", in.Description)
	p.required("category", "category", in.Category)
	p.required("level", "level", in.Level)
	p.required("type", "type", in.Type)
	if t, ok := p.updates["type"]; ok && t != "free" && t != "paid" {
		delete(p.updates, "type")
		p.fields["type"] = "type must be one of: free, paid!"
	}
	if in.Price != nil {
		if *in.Price < 0 {
			p.fields["price"] = "price must be at least 0!"
		} else {
			p.set("price", *in.Price)
		}
	}
	return p
}

func (in ModulePatch) build() *patch {
	p := newPatch()
	p.required("title", "title", in.Title)
	p.optional("description", in.Description)
	return p
}

func (in LessonPatch) build() *patch {
	p := newPatch()
	p.required("title", "title", in.Title)
	p.optional("description", in.Description)
	p.optional("content", in.Content)
	if in.DurationSeconds != nil {
		if *in.DurationSeconds < 0 {
			p.fields["duration_seconds"] = "duration_seconds must be at least 0!"
		} else {
			p.set("duration_seconds", *in.DurationSeconds)
		}
	}
	if in.AllowPreview != nil {
		p.set("allow_preview", *in.AllowPreview)
	}
	return p
}
