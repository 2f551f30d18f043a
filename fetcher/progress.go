package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/tekdi/user-microservice-sub001/apperrors"
	"github.com/tekdi/user-microservice-sub001/merger"
)

// FetchLessonProgress calls the tracking collaborator. 404 and 401 mean "no
// data for this user" and yield an empty result; anything else is
// UpstreamUnavailable.
func (f *Fetcher) FetchLessonProgress(ctx context.Context, userID, tenantID, orgID string) ([]merger.LessonTrack, error) {
	if f.token == "" {
		f.log.Warn().Str("userId", userID).Msg("collaborator token missing; skipping lesson progress fetch")
		return nil, nil
	}

	resp, err := f.collaboratorRequest(ctx, f.tracking, tenantID, orgID).
		Get(fmt.Sprintf("/tracking/attempts/progress/%s", userID))
	if err != nil {
		return nil, &apperrors.UpstreamUnavailable{Service: "tracking", Cause: err}
	}
	if resp.StatusCode() == http.StatusNotFound || resp.StatusCode() == http.StatusUnauthorized {
		return nil, nil
	}
	if resp.IsError() {
		return nil, &apperrors.UpstreamUnavailable{
			Service: "tracking",
			Cause:   fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()),
		}
	}

	var tracks []merger.LessonTrack
	if err := json.Unmarshal(resp.Body(), &tracks); err != nil {
		return nil, &apperrors.UpstreamUnavailable{Service: "tracking", Cause: err}
	}
	return tracks, nil
}

// FetchAssessmentProgress fetches attempts, then each attempt's answers. A
// failed answers fetch keeps the attempt with no answers and status
// "error" instead of dropping it.
func (f *Fetcher) FetchAssessmentProgress(ctx context.Context, userID, tenantID, orgID string) ([]merger.AttemptRecord, error) {
	if f.token == "" {
		f.log.Warn().Str("userId", userID).Msg("collaborator token missing; skipping assessment fetch")
		return nil, nil
	}

	resp, err := f.collaboratorRequest(ctx, f.assessment, tenantID, orgID).
		Get(fmt.Sprintf("/attempts/user/%s", userID))
	if err != nil {
		return nil, &apperrors.UpstreamUnavailable{Service: "assessment", Cause: err}
	}
	if resp.StatusCode() == http.StatusNotFound || resp.StatusCode() == http.StatusUnauthorized {
		return nil, nil
	}
	if resp.IsError() {
		return nil, &apperrors.UpstreamUnavailable{
			Service: "assessment",
			Cause:   fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()),
		}
	}

	var attempts []merger.AttemptRecord
	if err := json.Unmarshal(resp.Body(), &attempts); err != nil {
		return nil, &apperrors.UpstreamUnavailable{Service: "assessment", Cause: err}
	}

	for i := range attempts {
		answers, err := f.fetchAttemptAnswers(ctx, attempts[i].AttemptID, tenantID, orgID)
		if err != nil {
			f.log.Warn().Err(err).Str("attemptId", attempts[i].AttemptID).Str("userId", userID).Msg("answers fetch failed; keeping attempt without answers")
			attempts[i].Answers = nil
			attempts[i].Status = "error"
			continue
		}
		attempts[i].Answers = answers
	}
	return attempts, nil
}

func (f *Fetcher) fetchAttemptAnswers(ctx context.Context, attemptID, tenantID, orgID string) ([]merger.AttemptAnswer, error) {
	resp, err := f.collaboratorRequest(ctx, f.assessment, tenantID, orgID).
		Get(fmt.Sprintf("/attempts/%s/answers", attemptID))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String())
	}
	var answers []merger.AttemptAnswer
	if err := json.Unmarshal(resp.Body(), &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func (f *Fetcher) collaboratorRequest(ctx context.Context, client *resty.Client, tenantID, orgID string) *resty.Request {
	return client.R().
		SetContext(ctx).
		SetHeader("tenantid", f.defaults.TenantOrDefault(tenantID)).
		SetHeader("organisationid", f.defaults.OrganisationOrDefault(orgID)).
		SetHeader("Authorization", "Bearer "+f.token)
}
