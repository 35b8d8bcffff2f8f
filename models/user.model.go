package models

const (
	RoleInstructor = "INSTRUCTOR"
	RoleStudent    = "STUDENT"
)

// Instructor owns courses and everything beneath them.
type Instructor struct {
	Model
	Name  string `json:"name"`
	Email string `json:"email" gorm:"index"`
}

// Student belongs to at most one instructor's community and can only see that
// instructor's courses.
type Student struct {
	Model
	Name         string `json:"name"`
	Email        string `json:"email" gorm:"index"`
	InstructorID *uint  `json:"instructor_id" gorm:"index"`
}
