package syncer

import (
	"context"

	"github.com/tekdi/user-microservice-sub001/events"
	"github.com/tekdi/user-microservice-sub001/merger"
	"github.com/tekdi/user-microservice-sub001/search"
)

// ApplyCourseHierarchy merges a validated course-hierarchy event into the
// user's document. The hierarchy lands on the application for the event's
// cohort (or the application already carrying the course, or the first one),
// tracking on existing contents stays untouched, and the dedup pass runs
// before the write. An unindexed user gets a full create first.
func (o *Orchestrator) ApplyCourseHierarchy(ctx context.Context, ev *events.CourseHierarchyEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	unlock := o.locks.Lock(ev.UserID)
	defer unlock()

	existing, err := o.index.Get(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if existing == nil {
		if err := o.fullSync(ctx, ev.UserID, ev.TenantID, ev.OrganisationID, nil); err != nil {
			return err
		}
		existing, err = o.index.Get(ctx, ev.UserID)
		if err != nil || existing == nil {
			return err
		}
	}

	working, err := merger.CloneDocument(existing)
	if err != nil {
		return err
	}
	if len(working.Applications) == 0 {
		o.log.Warn().Str("userId", ev.UserID).Msg("course hierarchy event for user without applications; dropped")
		return nil
	}

	target := 0
	for i := range working.Applications {
		if ev.CohortID != "" && working.Applications[i].CohortID == ev.CohortID {
			target = i
			break
		}
		for _, course := range ev.Hierarchy.Courses {
			if containsCourse(working.Applications[i].Courses, course.CourseID) {
				target = i
			}
		}
	}

	working.Applications[target].Courses = merger.MergeCourseHierarchy(working.Applications[target].Courses, ev.Hierarchy)
	*working = merger.DedupeLessonTrackIDs(*working)

	partial := map[string]any{
		"applications": working.Applications,
		"updatedAt":    o.now(),
	}
	return o.updateWithRecovery(ctx, ev.UserID, ev.TenantID, ev.OrganisationID, partial)
}

// ApplyLessonAttempt handles a lesson-attempt event: the tracking service
// stays the source of truth, so the event triggers a courses-section resync.
func (o *Orchestrator) ApplyLessonAttempt(ctx context.Context, ev *events.LessonAttemptEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	return o.SyncUser(ctx, ev.UserID, ev.TenantID, ev.OrganisationID, SectionCourses)
}

// ApplyAssessmentAnswer handles an assessment-answer event as an
// assessment-section resync.
func (o *Orchestrator) ApplyAssessmentAnswer(ctx context.Context, ev *events.AssessmentAnswerEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	return o.SyncUser(ctx, ev.UserID, ev.TenantID, ev.OrganisationID, SectionAssessment)
}

func containsCourse(courses []search.Course, id string) bool {
	for i := range courses {
		if courses[i].CourseID == id {
			return true
		}
	}
	return false
}
