package courseRoutes

import (
	controllers "learnhub/controllers/course"
	"learnhub/middleware"
	"learnhub/models"
	"learnhub/validators"
	courseValidator "learnhub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all student-facing course routes
func SetupCourseRoutes(app *fiber.App, h *controllers.Handler, jwtSecret string) {
	auth := middleware.JWTMiddleware(jwtSecret)
	student := middleware.RequireRole(models.RoleStudent)

	courseID := validators.ParseID("courseID", "Course")

	// Catalogue and content
	app.Get("/courses", auth, student, validators.ListQuery(), h.ListPublishedCourses)
	app.Get("/courses/:id/content", auth, student, courseID, h.CourseContent)

	// Enrollment
	app.Post("/courses/:id/enroll", auth, student, courseID, h.EnrollInCourse)
	app.Get("/enrollments", auth, student, h.MyEnrollments)
	app.Get("/enrollments/:id/progress", auth, student, validators.ParseID("enrollmentID", "Enrollment"), h.EnrollmentProgress)

	// Progress tracking
	app.Put("/lessons/:id/progress", auth, student, validators.ParseID("lessonID", "Lesson"), courseValidator.RecordProgress(), h.RecordProgress)
}
