// Package events defines the typed webhook payloads delivered by the three
// upstream event sources. Payloads are validated here, at the boundary, so
// untyped maps never reach the merge logic.
package events

import (
	"github.com/google/uuid"

	"github.com/tekdi/user-microservice-sub001/apperrors"
	"github.com/tekdi/user-microservice-sub001/merger"
)

// CourseHierarchyEvent announces a new or changed course tree for a user's
// enrollment. Delivery is at-least-once; applying it twice is harmless
// because the hierarchy merge is an upsert.
type CourseHierarchyEvent struct {
	UserID         string                  `json:"userId"`
	TenantID       string                  `json:"tenantId"`
	OrganisationID string                  `json:"organisationId"`
	CohortID       string                  `json:"cohortId"`
	Hierarchy      merger.HierarchyPayload `json:"hierarchy"`
}

func (e *CourseHierarchyEvent) Validate() error {
	if _, err := uuid.Parse(e.UserID); err != nil {
		return &apperrors.ValidationError{Field: "userId", Message: "must be a UUID"}
	}
	if len(e.Hierarchy.Courses) == 0 {
		return &apperrors.ValidationError{Field: "hierarchy", Message: "must carry at least one course"}
	}
	for _, course := range e.Hierarchy.Courses {
		if course.CourseID == "" {
			return &apperrors.ValidationError{Field: "hierarchy.courses", Message: "every course needs a courseId"}
		}
	}
	return nil
}

// LessonAttemptEvent announces fresh lesson progress. The event only names
// the user; the tracking collaborator remains the source of truth, so
// handling it is a courses-section resync.
type LessonAttemptEvent struct {
	UserID         string `json:"userId"`
	TenantID       string `json:"tenantId"`
	OrganisationID string `json:"organisationId"`
	LessonTrackID  string `json:"lessonTrackId"`
	CourseID       string `json:"courseId"`
}

func (e *LessonAttemptEvent) Validate() error {
	if _, err := uuid.Parse(e.UserID); err != nil {
		return &apperrors.ValidationError{Field: "userId", Message: "must be a UUID"}
	}
	return nil
}

// AssessmentAnswerEvent announces a scored or re-scored attempt; handled as
// an assessment-section resync against the assessment collaborator.
type AssessmentAnswerEvent struct {
	UserID         string `json:"userId"`
	TenantID       string `json:"tenantId"`
	OrganisationID string `json:"organisationId"`
	AttemptID      string `json:"attemptId"`
}

func (e *AssessmentAnswerEvent) Validate() error {
	if _, err := uuid.Parse(e.UserID); err != nil {
		return &apperrors.ValidationError{Field: "userId", Message: "must be a UUID"}
	}
	if e.AttemptID == "" {
		return &apperrors.ValidationError{Field: "attemptId", Message: "is required"}
	}
	return nil
}
