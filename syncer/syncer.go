// Package syncer orchestrates the per-user document sync: it decides
// create-vs-update, selects which sections to refresh, applies the merger
// against a copy of the indexed document, and issues the index write with
// missing-document fallback and bounded conflict retry.
package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tekdi/user-microservice-sub001/apperrors"
	"github.com/tekdi/user-microservice-sub001/fetcher"
	"github.com/tekdi/user-microservice-sub001/merger"
	"github.com/tekdi/user-microservice-sub001/search"
)

// Section selects the slice of the document a sync refreshes.
type Section string

const (
	SectionProfile      Section = "profile"
	SectionApplications Section = "applications"
	SectionCourses      Section = "courses"
	SectionAssessment   Section = "assessment"
	SectionAll          Section = "all"
)

// ParseSection validates a caller-supplied section name.
func ParseSection(raw string) (Section, error) {
	switch Section(raw) {
	case SectionProfile, SectionApplications, SectionCourses, SectionAssessment, SectionAll:
		return Section(raw), nil
	case "":
		return SectionAll, nil
	}
	return "", &apperrors.ValidationError{Field: "section", Message: "must be one of profile, applications, courses, assessment, all"}
}

// conflictRetries bounds the optimistic-concurrency retry on index writes.
const conflictRetries = 3

// Index is the slice of the search client the orchestrator writes through.
type Index interface {
	Get(ctx context.Context, id string) (*search.UserDocument, error)
	Index(ctx context.Context, id string, doc *search.UserDocument) error
	Update(ctx context.Context, id string, partial map[string]any, opts search.UpdateOptions) error
	Delete(ctx context.Context, id string) error
}

// DataFetcher is the fragment-gathering collaborator.
type DataFetcher interface {
	ComprehensiveSync(ctx context.Context, userID, tenantID, orgID string) (*search.UserDocument, error)
	FetchProfile(ctx context.Context, userID string) (fetcher.ProfileData, error)
	FetchApplications(ctx context.Context, userID string) ([]search.Application, error)
	FetchLessonProgress(ctx context.Context, userID, tenantID, orgID string) ([]merger.LessonTrack, error)
	FetchAssessmentProgress(ctx context.Context, userID, tenantID, orgID string) ([]merger.AttemptRecord, error)
}

// Orchestrator is the sole writer of user documents.
type Orchestrator struct {
	index   Index
	fetcher DataFetcher
	locks   *userLocks
	log     zerolog.Logger
	now     func() time.Time
}

func New(index Index, dataFetcher DataFetcher, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		index:   index,
		fetcher: dataFetcher,
		locks:   newUserLocks(),
		log:     log.With().Str("component", "syncer").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the timestamp source, for tests.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// SyncUser refreshes the given section of the user's document. Absent
// documents take the create path regardless of section. The call is
// idempotent and safe to retry; fragment-level upstream failures degrade to
// empty fragments and never fail the call.
func (o *Orchestrator) SyncUser(ctx context.Context, userID, tenantID, orgID string, section Section) error {
	if _, err := uuid.Parse(userID); err != nil {
		return &apperrors.ValidationError{Field: "userId", Message: "must be a UUID"}
	}
	if _, err := ParseSection(string(section)); err != nil {
		return err
	}

	unlock := o.locks.Lock(userID)
	defer unlock()

	existing, err := o.index.Get(ctx, userID)
	if err != nil {
		return err
	}
	if existing == nil || section == SectionAll {
		return o.fullSync(ctx, userID, tenantID, orgID, existing)
	}
	return o.sectionalSync(ctx, userID, tenantID, orgID, section, existing)
}

// DeleteUser removes the user's document from the index. A document already
// absent is reported as NotFound.
func (o *Orchestrator) DeleteUser(ctx context.Context, userID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return &apperrors.ValidationError{Field: "userId", Message: "must be a UUID"}
	}
	unlock := o.locks.Lock(userID)
	defer unlock()

	err := o.index.Delete(ctx, userID)
	var missing *search.DocumentMissingError
	if errors.As(err, &missing) {
		return &apperrors.NotFound{Kind: "document", ID: userID}
	}
	return err
}

// fullSync rebuilds the whole document. When the document already exists the
// rebuild replaces every mutable field but keeps the original createdAt.
func (o *Orchestrator) fullSync(ctx context.Context, userID, tenantID, orgID string, existing *search.UserDocument) error {
	doc, err := o.fetcher.ComprehensiveSync(ctx, userID, tenantID, orgID)
	if err != nil {
		return err
	}
	doc.UpdatedAt = o.now()
	if existing == nil {
		doc.CreatedAt = doc.UpdatedAt
		return o.indexWithRetry(ctx, userID, doc)
	}

	doc.CreatedAt = existing.CreatedAt
	partial := map[string]any{
		"profile":      doc.Profile,
		"applications": doc.Applications,
		"updatedAt":    doc.UpdatedAt,
	}
	return o.updateWithRecovery(ctx, userID, tenantID, orgID, partial)
}

// sectionalSync fetches only the fragments the section needs and merges them
// against a copy of the indexed document. Arrays are reconciled element-wise
// by the merger before the deep-merge update call; the update document only
// carries the top-level keys the section touched.
func (o *Orchestrator) sectionalSync(ctx context.Context, userID, tenantID, orgID string, section Section, existing *search.UserDocument) error {
	working, err := merger.CloneDocument(existing)
	if err != nil {
		return err
	}

	partial, err := o.mergeSection(ctx, userID, tenantID, orgID, section, working)
	if err != nil {
		return err
	}
	partial["updatedAt"] = o.now()
	return o.updateWithRecovery(ctx, userID, tenantID, orgID, partial)
}

// mergeSection applies one section's fetch+merge to the working copy and
// returns the partial update document. Upstream failures degrade the
// fragment to empty (the partial then only advances updatedAt).
func (o *Orchestrator) mergeSection(ctx context.Context, userID, tenantID, orgID string, section Section, working *search.UserDocument) (map[string]any, error) {
	switch section {
	case SectionProfile:
		data, err := o.fetcher.FetchProfile(ctx, userID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return nil, err
			}
			o.log.Warn().Err(err).Str("userId", userID).Msg("profile fragment degraded; document left unchanged")
			return map[string]any{}, nil
		}
		working.Profile = data.Profile
		working.Profile.CustomFields = merger.NormalizeProfileFields(data.RawFields, working.Applications)
		return map[string]any{"profile": working.Profile}, nil

	case SectionApplications:
		apps, err := o.fetcher.FetchApplications(ctx, userID)
		if err != nil {
			o.log.Warn().Err(err).Str("userId", userID).Msg("applications fragment degraded; document left unchanged")
			return map[string]any{}, nil
		}
		working.Applications = reconcileApplications(working.Applications, apps)
		return map[string]any{"applications": working.Applications}, nil

	case SectionCourses:
		tracks, err := o.fetcher.FetchLessonProgress(ctx, userID, tenantID, orgID)
		if err != nil {
			o.log.Warn().Err(err).Str("userId", userID).Msg("lesson progress fragment degraded; document left unchanged")
			return map[string]any{}, nil
		}
		courses := merger.BuildCoursesFromTracks(tracks)
		working.Applications = merger.AttachCourses(working.Applications, courses, o.log)
		*working = merger.DedupeLessonTrackIDs(*working)
		return map[string]any{"applications": working.Applications}, nil

	case SectionAssessment:
		records, err := o.fetcher.FetchAssessmentProgress(ctx, userID, tenantID, orgID)
		if err != nil {
			o.log.Warn().Err(err).Str("userId", userID).Msg("assessment fragment degraded; document left unchanged")
			return map[string]any{}, nil
		}
		working.Applications = merger.AttachAssessmentAnswers(working.Applications, records)
		return map[string]any{"applications": working.Applications}, nil
	}
	return nil, &apperrors.ValidationError{Field: "section", Message: "unsupported section"}
}

// reconcileApplications upserts fresh applications by cohortId onto the
// existing list, preserving the course trees already indexed for cohorts the
// relational store still knows. Existing applications absent from the fresh
// fetch are retained: membership fetches degrade to partial lists and a
// sectional sync must never empty previously-indexed state.
func reconcileApplications(existing, incoming []search.Application) []search.Application {
	merged := make([]search.Application, len(existing))
	copy(merged, existing)

	for _, app := range incoming {
		idx := -1
		for i := range merged {
			if merged[i].CohortID == app.CohortID {
				idx = i
				break
			}
		}
		if idx < 0 {
			merged = append(merged, app)
			continue
		}
		app.Courses = merged[idx].Courses
		merged[idx] = app
	}
	return merged
}

// updateWithRecovery performs the partial update with the two recovery
// paths: a missing document mid-flight (race with a delete) falls back to
// the create path, and version conflicts retry a bounded number of times.
func (o *Orchestrator) updateWithRecovery(ctx context.Context, userID, tenantID, orgID string, partial map[string]any) error {
	var err error
	for attempt := 1; attempt <= conflictRetries; attempt++ {
		err = o.index.Update(ctx, userID, partial, search.UpdateOptions{})

		var missing *search.DocumentMissingError
		if errors.As(err, &missing) {
			o.log.Info().Str("userId", userID).Msg("document vanished mid-update; falling back to create")
			return o.fullSync(ctx, userID, tenantID, orgID, nil)
		}
		var conflict *search.VersionConflictError
		if errors.As(err, &conflict) {
			o.log.Warn().Str("userId", userID).Int("attempt", attempt).Msg("version conflict on update; retrying")
			continue
		}
		return err
	}
	return &apperrors.ConflictError{DocumentID: userID}
}

// indexWithRetry is the create-path counterpart of updateWithRecovery.
func (o *Orchestrator) indexWithRetry(ctx context.Context, userID string, doc *search.UserDocument) error {
	var err error
	for attempt := 1; attempt <= conflictRetries; attempt++ {
		err = o.index.Index(ctx, userID, doc)
		var conflict *search.VersionConflictError
		if !errors.As(err, &conflict) {
			return err
		}
		o.log.Warn().Str("userId", userID).Int("attempt", attempt).Msg("version conflict on index; retrying")
	}
	return &apperrors.ConflictError{DocumentID: userID}
}
