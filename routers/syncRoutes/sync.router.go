package syncRoutes

import (
	"github.com/gofiber/fiber/v2"

	controllers "github.com/tekdi/user-microservice-sub001/controllers/syncControllers"
	"github.com/tekdi/user-microservice-sub001/middleware"
	validators "github.com/tekdi/user-microservice-sub001/validators/syncValidator"
)

// SetupSyncRoutes sets up the sync, document and webhook routes
func SetupSyncRoutes(app *fiber.App) {
	userGroup := app.Group("/user/v1")

	// Sync triggers
	userGroup.Post("/sync/:userId", middleware.JWTMiddleware, validators.SyncUser(), controllers.SyncUser)

	// Indexed document access
	userGroup.Get("/document/:userId", middleware.JWTMiddleware, validators.DocumentID(), controllers.GetDocument)
	userGroup.Delete("/document/:userId", middleware.JWTMiddleware, validators.DocumentID(), controllers.DeleteDocument)

	// Filtered search
	userGroup.Post("/search", middleware.JWTMiddleware, validators.SearchUsers(), controllers.SearchUsers)

	// Upstream event webhooks
	userGroup.Post("/webhook/course-hierarchy", middleware.JWTMiddleware, validators.CourseHierarchyEvent(), controllers.CourseHierarchyWebhook)
	userGroup.Post("/webhook/lesson-attempt", middleware.JWTMiddleware, validators.LessonAttemptEvent(), controllers.LessonAttemptWebhook)
	userGroup.Post("/webhook/assessment-answer", middleware.JWTMiddleware, validators.AssessmentAnswerEvent(), controllers.AssessmentAnswerWebhook)
}
