package courseRoutes

import (
	controllers "learnhub/controllers/course"
	"learnhub/middleware"
	"learnhub/models"
	"learnhub/validators"
	courseValidator "learnhub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupInstructorRoutes registers the authoring endpoints. Every handler
// re-checks ownership through the service layer.
func SetupInstructorRoutes(app *fiber.App, h *controllers.Handler, jwtSecret string) {
	instructorGroup := app.Group("/instructor", middleware.JWTMiddleware(jwtSecret), middleware.RequireRole(models.RoleInstructor))

	courseID := validators.ParseID("courseID", "Course")
	moduleID := validators.ParseID("moduleID", "Module")
	lessonID := validators.ParseID("lessonID", "Lesson")
	videoID := validators.ParseID("videoID", "Video")

	// Courses
	instructorGroup.Post("/courses", courseValidator.CreateCourse(), h.CreateCourse)
	instructorGroup.Get("/courses", validators.ListQuery(), h.ListCourses)
	instructorGroup.Get("/courses/:id", courseID, h.GetCourse)
	instructorGroup.Put("/courses/:id", courseID, courseValidator.UpdateCourse(), h.UpdateCourse)
	instructorGroup.Delete("/courses/:id", courseID, h.DeleteCourse)
	instructorGroup.Post("/courses/:id/publish", courseID, courseValidator.PublishCourse(), h.PublishCourse)
	instructorGroup.Put("/courses/:id/thumbnail", courseID, courseValidator.CourseThumbnail(), h.SetThumbnail)
	instructorGroup.Get("/courses/:id/enrollments", courseID, validators.ListQuery(), h.CourseEnrollments)

	// Modules
	instructorGroup.Post("/courses/:id/modules", courseID, courseValidator.CreateModule(), h.CreateModule)
	instructorGroup.Put("/modules/:id", moduleID, courseValidator.UpdateModule(), h.UpdateModule)
	instructorGroup.Delete("/modules/:id", moduleID, h.DeleteModule)
	instructorGroup.Post("/modules/:id/move", moduleID, validators.Move(), h.MoveModule)

	// Lessons
	instructorGroup.Post("/modules/:id/lessons", moduleID, courseValidator.CreateLesson(), h.CreateLesson)
	instructorGroup.Put("/lessons/:id", lessonID, courseValidator.UpdateLesson(), h.UpdateLesson)
	instructorGroup.Delete("/lessons/:id", lessonID, h.DeleteLesson)
	instructorGroup.Post("/lessons/:id/move", lessonID, validators.Move(), h.MoveLesson)
	instructorGroup.Post("/lessons/:id/files", lessonID, courseValidator.LessonFiles(), h.AddLessonFiles)
	instructorGroup.Delete("/lessons/:id/files/:key", lessonID, courseValidator.FileKey(), h.RemoveLessonFile)

	// Videos
	instructorGroup.Post("/lessons/:id/videos", lessonID, courseValidator.AddVideo(), h.AddVideo)
	instructorGroup.Delete("/videos/:id", videoID, h.DeleteVideo)
	instructorGroup.Post("/videos/:id/move", videoID, validators.Move(), h.MoveVideo)

	instructorGroup.Get("/dashboard", h.Dashboard)
}
