package syncControllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tekdi/user-microservice-sub001/apperrors"
	"github.com/tekdi/user-microservice-sub001/events"
	"github.com/tekdi/user-microservice-sub001/middleware"
	"github.com/tekdi/user-microservice-sub001/search"
	"github.com/tekdi/user-microservice-sub001/syncer"
	"github.com/tekdi/user-microservice-sub001/validators/syncValidator"
)

var (
	orchestrator *syncer.Orchestrator
	searchClient *search.Client
)

// Setup injects the collaborators the controllers call through.
func Setup(orc *syncer.Orchestrator, client *search.Client) {
	orchestrator = orc
	searchClient = client
}

// SyncUser triggers a full or sectional sync for one user.
func SyncUser(c *fiber.Ctx) error {
	userID := c.Locals("syncUserId").(string)
	section := c.Locals("syncSection").(syncer.Section)
	tenantID := tenantFrom(c)
	orgID := organisationFrom(c)

	if err := orchestrator.SyncUser(c.Context(), userID, tenantID, orgID, section); err != nil {
		return syncErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "User synced successfully!", fiber.Map{
		"userId":  userID,
		"section": section,
	})
}

// GetDocument returns the currently-indexed document for one user.
func GetDocument(c *fiber.Ctx) error {
	userID := c.Locals("syncUserId").(string)

	doc, err := searchClient.Get(c.Context(), userID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Failed to fetch document!", nil)
	}
	if doc == nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Document not found!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Document fetched successfully!", doc)
}

// DeleteDocument removes one user's document from the index.
func DeleteDocument(c *fiber.Ctx) error {
	userID := c.Locals("syncUserId").(string)

	if err := orchestrator.DeleteUser(c.Context(), userID); err != nil {
		if apperrors.IsNotFound(err) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Document not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Failed to delete document!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Document deleted successfully!", fiber.Map{
		"userId": userID,
	})
}

// SearchUsers runs a filtered search against the index.
func SearchUsers(c *fiber.Ctx) error {
	reqData := c.Locals("searchRequest").(*syncValidator.SearchRequest)

	var must []map[string]any
	if reqData.Name != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query":  reqData.Name,
				"fields": []string{"profile.firstName", "profile.lastName", "profile.username"},
			},
		})
	}
	if reqData.Email != "" {
		must = append(must, map[string]any{
			"term": map[string]any{"profile.email.keyword": reqData.Email},
		})
	}
	if reqData.CohortID != "" {
		must = append(must, map[string]any{
			"nested": map[string]any{
				"path": "applications",
				"query": map[string]any{
					"term": map[string]any{"applications.cohortId": reqData.CohortID},
				},
			},
		})
	}

	query := map[string]any{"match_all": map[string]any{}}
	if len(must) > 0 {
		query = map[string]any{"bool": map[string]any{"must": must}}
	}

	page := reqData.Page
	if page < 1 {
		page = 1
	}
	limit := reqData.Limit
	if limit < 1 {
		limit = 10
	}

	result, err := searchClient.Search(c.Context(), query, search.SearchOptions{
		From: (page - 1) * limit,
		Size: limit,
	})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Search failed!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Search completed successfully!", fiber.Map{
		"total": result.Total,
		"users": result.Documents,
		"page":  page,
		"limit": limit,
	})
}

// CourseHierarchyWebhook merges a delivered course tree into the document.
func CourseHierarchyWebhook(c *fiber.Ctx) error {
	ev := c.Locals("courseHierarchyEvent").(*events.CourseHierarchyEvent)
	if err := orchestrator.ApplyCourseHierarchy(c.Context(), ev); err != nil {
		return syncErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course hierarchy applied!", fiber.Map{
		"userId": ev.UserID,
	})
}

// LessonAttemptWebhook triggers a courses-section resync.
func LessonAttemptWebhook(c *fiber.Ctx) error {
	ev := c.Locals("lessonAttemptEvent").(*events.LessonAttemptEvent)
	if err := orchestrator.ApplyLessonAttempt(c.Context(), ev); err != nil {
		return syncErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson attempt applied!", fiber.Map{
		"userId": ev.UserID,
	})
}

// AssessmentAnswerWebhook triggers an assessment-section resync.
func AssessmentAnswerWebhook(c *fiber.Ctx) error {
	ev := c.Locals("assessmentAnswerEvent").(*events.AssessmentAnswerEvent)
	if err := orchestrator.ApplyAssessmentAnswer(c.Context(), ev); err != nil {
		return syncErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Assessment answer applied!", fiber.Map{
		"userId": ev.UserID,
	})
}

// syncErrorResponse maps the error taxonomy onto HTTP statuses. Callers
// always get a definitive success or failure for the whole call;
// fragment-level degradation only ever shows up in logs.
func syncErrorResponse(c *fiber.Ctx, err error) error {
	var validation *apperrors.ValidationError
	if errors.As(err, &validation) {
		return middleware.JsonResponse(c, fiber.StatusUnprocessableEntity, false, validation.Error(), nil)
	}
	if apperrors.IsNotFound(err) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}
	if apperrors.IsConflict(err) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Document update conflicted; please retry!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Sync failed!", nil)
}

func tenantFrom(c *fiber.Ctx) string {
	if tenant := c.Get("tenantid"); tenant != "" {
		return tenant
	}
	tenant, _ := c.Locals("tenantId").(string)
	return tenant
}

func organisationFrom(c *fiber.Ctx) string {
	if org := c.Get("organisationid"); org != "" {
		return org
	}
	org, _ := c.Locals("organisationId").(string)
	return org
}
