// Package fetcher gathers normalized fragments for one user from the
// relational store and the two progress collaborators. Each fetch is
// independently fault-tolerant: a slow or broken upstream degrades its
// fragment to empty instead of failing the sync.
package fetcher

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tekdi/user-microservice-sub001/merger"
	"github.com/tekdi/user-microservice-sub001/search"
)

// Fetcher reads user fragments. It holds no per-user state; one instance
// serves every sync.
type Fetcher struct {
	db         *gorm.DB
	tracking   *resty.Client
	assessment *resty.Client
	token      string
	defaults   Defaults
	log        zerolog.Logger
}

// New wires a Fetcher against the relational store and the collaborator
// base URLs. An empty token soft-disables the HTTP fetches.
func New(db *gorm.DB, trackingURL, assessmentURL, token string, defaults Defaults, log zerolog.Logger) *Fetcher {
	componentLog := log.With().Str("component", "fetcher").Logger()
	return &Fetcher{
		db:         db,
		tracking:   collaboratorClient(trackingURL, defaults.UpstreamTimeout),
		assessment: collaboratorClient(assessmentURL, defaults.UpstreamTimeout),
		token:      token,
		defaults:   defaults,
		log:        componentLog,
	}
}

func collaboratorClient(baseURL string, timeout time.Duration) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
}

// ComprehensiveSync fetches every fragment in parallel and composes the
// full document. Fragment failures other than a missing user row degrade to
// empty and are logged; they never abort the sync.
func (f *Fetcher) ComprehensiveSync(ctx context.Context, userID, tenantID, orgID string) (*search.UserDocument, error) {
	var (
		profile      ProfileData
		applications []search.Application
		tracks       []merger.LessonTrack
		attempts     []merger.AttemptRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := f.FetchProfile(gctx, userID)
		if err != nil {
			// A user without a row cannot be synced at all.
			return err
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		apps, err := f.FetchApplications(gctx, userID)
		if err != nil {
			f.log.Warn().Err(err).Str("userId", userID).Msg("applications fetch degraded to empty")
			return nil
		}
		applications = apps
		return nil
	})
	g.Go(func() error {
		lt, err := f.FetchLessonProgress(gctx, userID, tenantID, orgID)
		if err != nil {
			f.log.Warn().Err(err).Str("userId", userID).Msg("lesson progress fetch degraded to empty")
			return nil
		}
		tracks = lt
		return nil
	})
	g.Go(func() error {
		ar, err := f.FetchAssessmentProgress(gctx, userID, tenantID, orgID)
		if err != nil {
			f.log.Warn().Err(err).Str("userId", userID).Msg("assessment fetch degraded to empty")
			return nil
		}
		attempts = ar
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := &search.UserDocument{
		UserID:       userID,
		Profile:      profile.Profile,
		Applications: applications,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if doc.Applications == nil {
		doc.Applications = []search.Application{}
	}

	courses := merger.BuildCoursesFromTracks(tracks)
	doc.Applications = merger.AttachCourses(doc.Applications, courses, f.log)
	*doc = merger.DedupeLessonTrackIDs(*doc)
	doc.Applications = merger.AttachAssessmentAnswers(doc.Applications, attempts)
	doc.Profile.CustomFields = merger.NormalizeProfileFields(profile.RawFields, doc.Applications)

	return doc, nil
}
