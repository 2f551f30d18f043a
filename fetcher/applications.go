package fetcher

import (
	"context"
	"encoding/json"

	"github.com/tekdi/user-microservice-sub001/merger"
	"github.com/tekdi/user-microservice-sub001/models"
	"github.com/tekdi/user-microservice-sub001/search"
)

// FetchApplications builds one Application per cohort membership, joining
// the cohort entity and the best-matching form submission. The submission
// match is by the form's contextId; when none matches, the user's first
// submission is attached as a documented fallback, not a guessed join.
func (f *Fetcher) FetchApplications(ctx context.Context, userID string) ([]search.Application, error) {
	var memberships []models.CohortMember
	if err := f.db.WithContext(ctx).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("created_at asc").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return nil, nil
	}

	var submissions []models.FormSubmission
	if err := f.db.WithContext(ctx).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("created_at asc").
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	forms := f.readForms(ctx, submissions)

	applications := make([]search.Application, 0, len(memberships))
	seenCohorts := make(map[string]bool)
	for _, member := range memberships {
		if seenCohorts[member.CohortID] {
			// At-least-once membership events can duplicate rows; one
			// Application per cohortId.
			continue
		}
		seenCohorts[member.CohortID] = true

		app := search.Application{
			CohortID:           member.CohortID,
			CohortMemberStatus: member.Status,
			Progress:           search.Progress{Pages: map[string]search.PageProgress{}},
			Courses:            []search.Course{},
		}

		var cohort models.Cohort
		if err := f.db.WithContext(ctx).
			Where("cohort_id = ? AND is_deleted = ?", member.CohortID, false).
			First(&cohort).Error; err == nil {
			app.CohortDetails = search.CohortDetails{
				Name:      cohort.Name,
				Type:      cohort.Type,
				Status:    cohort.Status,
				ProgramID: cohort.ProgramID,
			}
		} else {
			f.log.Warn().Str("cohortId", member.CohortID).Str("userId", userID).Msg("cohort entity missing for membership")
		}

		submission, form, ok := matchSubmission(member.CohortID, submissions, forms)
		if ok {
			if form.ContextID != member.CohortID {
				// Fallback join flagged for product confirmation: the first
				// submission may belong to a different cohort's form.
				f.log.Warn().
					Str("cohortId", member.CohortID).
					Str("submissionId", submission.SubmissionID).
					Str("formContextId", form.ContextID).
					Msg("no submission matched cohort context; attached first submission")
			}
			f.applySubmission(&app, submission, form)
		}

		applications = append(applications, app)
	}
	return applications, nil
}

func (f *Fetcher) readForms(ctx context.Context, submissions []models.FormSubmission) map[string]models.Form {
	forms := make(map[string]models.Form)
	if len(submissions) == 0 {
		return forms
	}
	formIDs := make([]string, 0, len(submissions))
	for _, s := range submissions {
		formIDs = append(formIDs, s.FormID)
	}
	var rows []models.Form
	if err := f.db.WithContext(ctx).
		Where("form_id IN ? AND is_deleted = ?", formIDs, false).
		Find(&rows).Error; err != nil {
		f.log.Warn().Err(err).Msg("form read failed; submissions will attach without schema mapping")
		return forms
	}
	for _, row := range rows {
		forms[row.FormID] = row
	}
	return forms
}

// matchSubmission picks the submission whose form was issued for the cohort
// (form.contextId == cohortId), falling back to the user's first submission.
func matchSubmission(cohortID string, submissions []models.FormSubmission, forms map[string]models.Form) (models.FormSubmission, models.Form, bool) {
	if len(submissions) == 0 {
		return models.FormSubmission{}, models.Form{}, false
	}
	for _, s := range submissions {
		if form, ok := forms[s.FormID]; ok && form.ContextID == cohortID {
			return s, form, true
		}
	}
	first := submissions[0]
	return first, forms[first.FormID], true
}

// applySubmission fills form progress onto the application: every submitted
// field maps to the page the form schema declares it on; unmapped fields
// are dropped with a warning, never inserted under a guessed page.
func (f *Fetcher) applySubmission(app *search.Application, submission models.FormSubmission, form models.Form) {
	app.FormID = submission.FormID
	app.SubmissionID = submission.SubmissionID
	app.FormStatus = submission.Status
	app.LastSavedAt = submission.LastSavedAt
	app.SubmittedAt = submission.SubmittedAt

	schema, err := ParseFormSchema(form.Schema)
	if err != nil {
		f.log.Warn().Err(err).Str("formId", form.FormID).Msg("form schema unparsable; progress left empty")
		return
	}
	fieldPages := FieldPageIndex(schema)
	pageTotals := PageFieldCounts(schema)

	var submitted map[string]any
	if len(submission.SubmissionData) > 0 {
		if err := json.Unmarshal(submission.SubmissionData, &submitted); err != nil {
			f.log.Warn().Err(err).Str("submissionId", submission.SubmissionID).Msg("submission data unparsable; progress left empty")
			return
		}
	}

	pages := make(map[string]search.PageProgress)
	completedFields := 0
	for fieldID, value := range submitted {
		pageName, ok := fieldPages[fieldID]
		if !ok {
			f.log.Warn().Str("fieldId", fieldID).Str("formId", form.FormID).Msg("submitted field not declared in form schema; dropped")
			continue
		}
		page := pages[pageName]
		if page.Fields == nil {
			page.Fields = make(map[string]any)
		}
		page.Fields[fieldID] = value
		pages[pageName] = page
		completedFields++
	}
	for pageName, page := range pages {
		page.Completed = pageTotals[pageName] > 0 && len(page.Fields) >= pageTotals[pageName]
		pages[pageName] = page
	}

	totalFields := len(fieldPages)
	app.Progress = search.Progress{
		Pages: pages,
		Overall: search.OverallProgress{
			Completed: completedFields,
			Total:     totalFields,
		},
	}
	app.CompletionPercentage = merger.CompletionPercentage(completedFields, totalFields)
}
