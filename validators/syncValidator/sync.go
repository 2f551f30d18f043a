package syncValidator

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tekdi/user-microservice-sub001/events"
	"github.com/tekdi/user-microservice-sub001/middleware"
	"github.com/tekdi/user-microservice-sub001/syncer"
)

var validate = validator.New()

// SyncUser validates the userId path param and the optional section query
// before any fetch happens.
func SyncUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		errors := make(map[string]string)

		userID := strings.TrimSpace(c.Params("userId"))
		if _, err := uuid.Parse(userID); err != nil {
			errors["userId"] = "userId must be a valid UUID!"
		}

		section, err := syncer.ParseSection(c.Query("section"))
		if err != nil {
			errors["section"] = "section must be one of profile, applications, courses, assessment, all!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("syncUserId", userID)
		c.Locals("syncSection", section)
		return c.Next()
	}
}

// DocumentID validates the userId path param for document get/delete.
func DocumentID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Params("userId"))
		if _, err := uuid.Parse(userID); err != nil {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"userId": "userId must be a valid UUID!",
			})
		}
		c.Locals("syncUserId", userID)
		return c.Next()
	}
}

// SearchRequest is the filtered search body.
type SearchRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"omitempty,email"`
	CohortID string `json:"cohortId" validate:"omitempty,uuid"`
	Page     int    `json:"page" validate:"omitempty,min=1"`
	Limit    int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

// SearchUsers validates the search request body.
func SearchUsers() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SearchRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			for _, fieldErr := range err.(validator.ValidationErrors) {
				errors[fieldErr.Field()] = "Invalid value for " + fieldErr.Field() + "!"
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("searchRequest", reqData)
		return c.Next()
	}
}

// CourseHierarchyEvent parses and validates the course-hierarchy webhook body.
func CourseHierarchyEvent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ev := new(events.CourseHierarchyEvent)
		if err := c.BodyParser(ev); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := ev.Validate(); err != nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"payload": err.Error()})
		}
		c.Locals("courseHierarchyEvent", ev)
		return c.Next()
	}
}

// LessonAttemptEvent parses and validates the lesson-attempt webhook body.
func LessonAttemptEvent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ev := new(events.LessonAttemptEvent)
		if err := c.BodyParser(ev); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := ev.Validate(); err != nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"payload": err.Error()})
		}
		c.Locals("lessonAttemptEvent", ev)
		return c.Next()
	}
}

// AssessmentAnswerEvent parses and validates the assessment-answer webhook body.
func AssessmentAnswerEvent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ev := new(events.AssessmentAnswerEvent)
		if err := c.BodyParser(ev); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := ev.Validate(); err != nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"payload": err.Error()})
		}
		c.Locals("assessmentAnswerEvent", ev)
		return c.Next()
	}
}
