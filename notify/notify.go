package notify

import (
	"context"
	"errors"
	"time"
)

// EnrollmentEvent is published after an enrollment row commits.
type EnrollmentEvent struct {
	EnrollmentID uint      `json:"enrollment_id"`
	CourseID     uint      `json:"course_id"`
	CourseTitle  string    `json:"course_title"`
	StudentID    uint      `json:"student_id"`
	StudentName  string    `json:"student_name"`
	StudentEmail string    `json:"student_email"`
	InstructorID uint      `json:"instructor_id"`
	EnrolledAt   time.Time `json:"enrolled_at"`
}

// Notifier delivers domain events to the outside world. Delivery is
// best-effort: callers log failures and move on.
type Notifier interface {
	EnrollmentCreated(ctx context.Context, ev EnrollmentEvent) error
}

type Noop struct{}

func (Noop) EnrollmentCreated(context.Context, EnrollmentEvent) error { return nil }

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) EnrollmentCreated(ctx context.Context, ev EnrollmentEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.EnrollmentCreated(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
