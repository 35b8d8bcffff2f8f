package models

// Principal is the authenticated actor of a request as supplied by the JWT middleware.
// InstructorID is set for instructors, StudentID for students.
type Principal struct {
	UserID       uint   `json:"user_id"`
	Role         string `json:"role"`
	InstructorID *uint  `json:"instructor_id,omitempty"`
	StudentID    *uint  `json:"student_id,omitempty"`
}

func (p Principal) IsInstructor() bool {
	return p.Role == RoleInstructor && p.InstructorID != nil
}

func (p Principal) IsStudent() bool {
	return p.Role == RoleStudent && p.StudentID != nil
}
