package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tekdi/user-microservice-sub001/apperrors"
	"github.com/tekdi/user-microservice-sub001/fetcher"
	"github.com/tekdi/user-microservice-sub001/merger"
	"github.com/tekdi/user-microservice-sub001/search"
)

const testUserID = "3fa85f64-5717-4562-b3fc-2c963f66afa6"

// stubIndex keeps documents in memory and applies partial updates the same
// way the store does: object keys deep-merged, arrays and scalars replaced
// wholesale. Errors queued on updateErrs are popped one per Update call
// before any merge happens.
type stubIndex struct {
	docs        map[string]*search.UserDocument
	updateErrs  []error
	indexCalls  int
	updateCalls int
	deleteErr   error
}

func newStubIndex() *stubIndex {
	return &stubIndex{docs: map[string]*search.UserDocument{}}
}

func (s *stubIndex) Get(_ context.Context, id string) (*search.UserDocument, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	return merger.CloneDocument(doc)
}

func (s *stubIndex) Index(_ context.Context, id string, doc *search.UserDocument) error {
	s.indexCalls++
	clone, err := merger.CloneDocument(doc)
	if err != nil {
		return err
	}
	s.docs[id] = clone
	return nil
}

func (s *stubIndex) Update(_ context.Context, id string, partial map[string]any, _ search.UpdateOptions) error {
	s.updateCalls++
	if len(s.updateErrs) > 0 {
		err := s.updateErrs[0]
		s.updateErrs = s.updateErrs[1:]
		return err
	}
	existing, ok := s.docs[id]
	if !ok {
		return &search.DocumentMissingError{ID: id}
	}
	base, err := merger.ToPartial(existing)
	if err != nil {
		return err
	}
	src, err := merger.ToPartial(partial)
	if err != nil {
		return err
	}
	merged := merger.DeepMerge(base, src)
	payload, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	var doc search.UserDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return err
	}
	s.docs[id] = &doc
	return nil
}

func (s *stubIndex) Delete(_ context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.docs[id]; !ok {
		return &search.DocumentMissingError{ID: id}
	}
	delete(s.docs, id)
	return nil
}

// stubFetcher returns canned fragments. ComprehensiveSync hands out a fresh
// clone on every call so tests can compare documents across calls.
type stubFetcher struct {
	doc     *search.UserDocument
	docErr  error
	calls   int
	profile fetcher.ProfileData
	profErr error
	apps    []search.Application
	appsErr error
	tracks  []merger.LessonTrack
	records []merger.AttemptRecord
}

func (s *stubFetcher) ComprehensiveSync(_ context.Context, userID, _, _ string) (*search.UserDocument, error) {
	s.calls++
	if s.docErr != nil {
		return nil, s.docErr
	}
	if s.doc == nil {
		return &search.UserDocument{UserID: userID, Applications: []search.Application{}}, nil
	}
	return merger.CloneDocument(s.doc)
}

func (s *stubFetcher) FetchProfile(_ context.Context, _ string) (fetcher.ProfileData, error) {
	return s.profile, s.profErr
}

func (s *stubFetcher) FetchApplications(_ context.Context, _ string) ([]search.Application, error) {
	return s.apps, s.appsErr
}

func (s *stubFetcher) FetchLessonProgress(_ context.Context, _, _, _ string) ([]merger.LessonTrack, error) {
	return s.tracks, nil
}

func (s *stubFetcher) FetchAssessmentProgress(_ context.Context, _, _, _ string) ([]merger.AttemptRecord, error) {
	return s.records, nil
}

func fixedClock() func() time.Time {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func testOrchestrator(index Index, f DataFetcher) *Orchestrator {
	return New(index, f, zerolog.Nop()).WithClock(fixedClock())
}

func applicationsFixture() []search.Application {
	return []search.Application{
		{CohortID: "cohort-1", FormID: "form-1", CohortMemberStatus: "active"},
		{CohortID: "cohort-2", FormID: "form-2", CohortMemberStatus: "active"},
		{CohortID: "cohort-3", FormID: "form-3", CohortMemberStatus: "dropout"},
	}
}

func TestSyncUserRejectsBadUserID(t *testing.T) {
	orc := testOrchestrator(newStubIndex(), &stubFetcher{})

	err := orc.SyncUser(context.Background(), "not-a-uuid", "", "", SectionAll)
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "userId", verr.Field)
}

func TestSyncUserRejectsUnknownSection(t *testing.T) {
	orc := testOrchestrator(newStubIndex(), &stubFetcher{})

	err := orc.SyncUser(context.Background(), testUserID, "", "", Section("everything"))
	var verr *apperrors.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSyncUserCreatesMissingDocument(t *testing.T) {
	index := newStubIndex()
	f := &stubFetcher{doc: &search.UserDocument{
		UserID:       testUserID,
		Profile:      search.Profile{FirstName: "Asha", LastName: "Verma"},
		Applications: applicationsFixture(),
	}}
	orc := testOrchestrator(index, f)

	// Sectional request against an absent document still takes the create
	// path.
	require.NoError(t, orc.SyncUser(context.Background(), testUserID, "t-1", "o-1", SectionCourses))

	stored := index.docs[testUserID]
	require.NotNil(t, stored)
	assert.Equal(t, 1, index.indexCalls)
	assert.Equal(t, "Asha", stored.Profile.FirstName)
	assert.Len(t, stored.Applications, 3)
	assert.Equal(t, stored.CreatedAt, stored.UpdatedAt)
}

func TestFullSyncKeepsCreatedAt(t *testing.T) {
	index := newStubIndex()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	index.docs[testUserID] = &search.UserDocument{
		UserID:    testUserID,
		CreatedAt: created,
		UpdatedAt: created,
	}
	f := &stubFetcher{doc: &search.UserDocument{
		UserID:       testUserID,
		Profile:      search.Profile{FirstName: "Asha"},
		Applications: []search.Application{},
	}}
	orc := testOrchestrator(index, f)

	require.NoError(t, orc.SyncUser(context.Background(), testUserID, "", "", SectionAll))

	stored := index.docs[testUserID]
	assert.Equal(t, created, stored.CreatedAt)
	assert.True(t, stored.UpdatedAt.After(created))
	assert.Equal(t, "Asha", stored.Profile.FirstName)
}

func TestFullSyncIsIdempotent(t *testing.T) {
	index := newStubIndex()
	f := &stubFetcher{doc: &search.UserDocument{
		UserID:       testUserID,
		Profile:      search.Profile{FirstName: "Asha"},
		Applications: applicationsFixture(),
	}}
	orc := testOrchestrator(index, f)

	require.NoError(t, orc.SyncUser(context.Background(), testUserID, "", "", SectionAll))
	first, err := json.Marshal(index.docs[testUserID])
	require.NoError(t, err)

	require.NoError(t, orc.SyncUser(context.Background(), testUserID, "", "", SectionAll))
	second, err := json.Marshal(index.docs[testUserID])
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
}

func TestProfileSectionalKeepsApplications(t *testing.T) {
	index := newStubIndex()
	index.docs[testUserID] = &search.UserDocument{
		UserID:       testUserID,
		Profile:      search.Profile{FirstName: "Asha", LastName: "Verma"},
		Applications: applicationsFixture(),
	}
	f := &stubFetcher{profile: fetcher.ProfileData{
		Profile: search.Profile{FirstName: "User", LastName: "Name", Email: "user-" + testUserID + "@example.com"},
	}}
	orc := testOrchestrator(index, f)

	require.NoError(t, orc.SyncUser(context.Background(), testUserID, "", "", SectionProfile))

	stored := index.docs[testUserID]
	assert.Equal(t, "User", stored.Profile.FirstName)
	require.Len(t, stored.Applications, 3, "profile sync must not touch applications")
	assert.Equal(t, "cohort-3", stored.Applications[2].CohortID)
}

func TestProfileSectionalPropagatesNotFound(t *testing.T) {
	index := newStubIndex()
	index.docs[testUserID] = &search.UserDocument{UserID: testUserID}
	f := &stubFetcher{profErr: &apperrors.NotFound{Kind: "user", ID: testUserID}}
	orc := testOrchestrator(index, f)

	err := orc.SyncUser(context.Background(), testUserID, "", "", SectionProfile)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestApplicationsSectionalDegradesOnUpstreamFailure(t *testing.T) {
	index := newStubIndex()
	index.docs[testUserID] = &search.UserDocument{
		UserID:       testUserID,
		Applications: applicationsFixture(),
	}
	f := &stubFetcher{appsErr: &apperrors.UpstreamUnavailable{Service: "database", Cause: errors.New("connection refused")}}
	orc := testOrchestrator(index, f)

	require.NoError(t, orc.SyncUser(context.Background(), testUserID, "", "", SectionApplications))

	stored := index.docs[testUserID]
	assert.Len(t, stored.Applications, 3, "degraded fetch leaves the fragment unchanged")
	assert.False(t, stored.UpdatedAt.IsZero(), "updatedAt still advances")
}

func TestApplicationsSectionalPreservesCourses(t *testing.T) {
	index := newStubIndex()
	index.docs[testUserID] = &search.UserDocument{
		UserID: testUserID,
		Applications: []search.Application{{
			CohortID: "cohort-1",
			FormID:   "form-1",
			Courses: []search.Course{{
				CourseID: "course-1",
				Units: []search.Unit{{UnitID: "unit-1", Contents: []search.Content{{
					ContentID: "content-1",
					Status:    search.StatusInProgress,
					Tracking:  search.Tracking{PercentComplete: 40},
				}}}},
			}},
		}},
	}
	f := &stubFetcher{apps: []search.Application{
		{CohortID: "cohort-1", FormID: "form-1", CohortMemberStatus: "active", CompletionPercentage: 80},
		{CohortID: "cohort-2", FormID: "form-2", CohortMemberStatus: "active"},
	}}
	orc := testOrchestrator(index, f)

	require.NoError(t, orc.SyncUser(context.Background(), testUserID, "", "", SectionApplications))

	stored := index.docs[testUserID]
	require.Len(t, stored.Applications, 2)
	refreshed := stored.Applications[0]
	assert.Equal(t, "active", refreshed.CohortMemberStatus)
	assert.Equal(t, 80, refreshed.CompletionPercentage)
	require.Len(t, refreshed.Courses, 1, "course tree survives the membership refresh")
	assert.Equal(t, float64(40), refreshed.Courses[0].Units[0].Contents[0].Tracking.PercentComplete)
}

func TestCoursesSectionalAttachesTracks(t *testing.T) {
	index := newStubIndex()
	index.docs[testUserID] = &search.UserDocument{
		UserID:       testUserID,
		Applications: []search.Application{{CohortID: "cohort-1", FormID: "form-1"}},
	}
	f := &stubFetcher{tracks: []merger.LessonTrack{{
		LessonTrackID:        "lt-1",
		CourseID:             "course-1",
		CourseName:           "Algebra",
		UnitID:               "unit-1",
		UnitName:             "Basics",
		LessonID:             "lesson-1",
		ContentID:            "content-1",
		CompletionPercentage: 55,
		Status:               search.StatusInProgress,
	}}}
	orc := testOrchestrator(index, f)

	require.NoError(t, orc.SyncUser(context.Background(), testUserID, "t-1", "o-1", SectionCourses))

	stored := index.docs[testUserID]
	require.Len(t, stored.Applications, 1)
	require.Len(t, stored.Applications[0].Courses, 1)
	content := stored.Applications[0].Courses[0].Units[0].Contents[0]
	assert.Equal(t, "lt-1", content.LessonTrackID)
	assert.Equal(t, float64(55), content.Tracking.PercentComplete)
}

func TestUpdateFallsBackToCreateWhenDocumentVanishes(t *testing.T) {
	index := newStubIndex()
	index.docs[testUserID] = &search.UserDocument{
		UserID:       testUserID,
		Applications: applicationsFixture(),
	}
	// The document is found on Get but a delete wins the race before the
	// partial update lands.
	index.updateErrs = []error{&search.DocumentMissingError{ID: testUserID}}

	f := &stubFetcher{doc: &search.UserDocument{
		UserID:       testUserID,
		Profile:      search.Profile{FirstName: "Asha"},
		Applications: applicationsFixture(),
	}}
	orc := testOrchestrator(index, f)

	require.NoError(t, orc.SyncUser(context.Background(), testUserID, "", "", SectionProfile))

	assert.Equal(t, 1, index.indexCalls, "fallback takes the create path")
	want, err := f.ComprehensiveSync(context.Background(), testUserID, "", "")
	require.NoError(t, err)
	stored := index.docs[testUserID]
	assert.Equal(t, want.Profile, stored.Profile)
	assert.Equal(t, want.Applications, stored.Applications)
	assert.Equal(t, stored.CreatedAt, stored.UpdatedAt)
}

func TestUpdateGivesUpAfterBoundedConflictRetries(t *testing.T) {
	index := newStubIndex()
	index.docs[testUserID] = &search.UserDocument{UserID: testUserID}
	index.updateErrs = []error{
		&search.VersionConflictError{ID: testUserID},
		&search.VersionConflictError{ID: testUserID},
		&search.VersionConflictError{ID: testUserID},
	}
	f := &stubFetcher{profile: fetcher.ProfileData{Profile: search.Profile{FirstName: "Asha"}}}
	orc := testOrchestrator(index, f)

	err := orc.SyncUser(context.Background(), testUserID, "", "", SectionProfile)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, 3, index.updateCalls)
}

func TestUpdateSucceedsAfterTransientConflict(t *testing.T) {
	index := newStubIndex()
	index.docs[testUserID] = &search.UserDocument{UserID: testUserID}
	index.updateErrs = []error{&search.VersionConflictError{ID: testUserID}}
	f := &stubFetcher{profile: fetcher.ProfileData{Profile: search.Profile{FirstName: "Asha"}}}
	orc := testOrchestrator(index, f)

	require.NoError(t, orc.SyncUser(context.Background(), testUserID, "", "", SectionProfile))
	assert.Equal(t, 2, index.updateCalls)
	assert.Equal(t, "Asha", index.docs[testUserID].Profile.FirstName)
}

func TestDeleteUserMapsMissingToNotFound(t *testing.T) {
	orc := testOrchestrator(newStubIndex(), &stubFetcher{})

	err := orc.DeleteUser(context.Background(), testUserID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteUserRemovesDocument(t *testing.T) {
	index := newStubIndex()
	index.docs[testUserID] = &search.UserDocument{UserID: testUserID}
	orc := testOrchestrator(index, &stubFetcher{})

	require.NoError(t, orc.DeleteUser(context.Background(), testUserID))
	assert.NotContains(t, index.docs, testUserID)
}

func TestParseSection(t *testing.T) {
	section, err := ParseSection("")
	require.NoError(t, err)
	assert.Equal(t, SectionAll, section)

	section, err = ParseSection("courses")
	require.NoError(t, err)
	assert.Equal(t, SectionCourses, section)

	_, err = ParseSection("grades")
	var verr *apperrors.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestReconcileApplicationsRetainsAbsentCohorts(t *testing.T) {
	existing := applicationsFixture()
	incoming := []search.Application{{CohortID: "cohort-2", FormID: "form-2", CohortMemberStatus: "completed"}}

	merged := reconcileApplications(existing, incoming)

	require.Len(t, merged, 3)
	assert.Equal(t, "completed", merged[1].CohortMemberStatus)
	assert.Equal(t, "cohort-3", merged[2].CohortID)
}
