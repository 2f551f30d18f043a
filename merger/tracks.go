package merger

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/tekdi/user-microservice-sub001/search"
)

// LessonTrack is one progress record for a lesson, as delivered by the
// tracking collaborator. The same lessonTrackId may arrive more than once
// under different units; the dedup pass resolves that.
type LessonTrack struct {
	LessonTrackID        string    `json:"lessonTrackId"`
	CourseID             string    `json:"courseId"`
	CourseName           string    `json:"course"`
	UnitID               string    `json:"unitId"`
	UnitName             string    `json:"unit"`
	LessonID             string    `json:"lessonId"`
	LessonName           string    `json:"lesson"`
	ContentID            string    `json:"contentId"`
	CompletionPercentage float64   `json:"completionPercentage"`
	CurrentPosition      int       `json:"currentPosition"`
	TimeSpent            int       `json:"timeSpent"`
	Status               string    `json:"status"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// BuildCoursesFromTracks groups lesson tracks into Course/Unit/Content
// nodes. A track without a contentId uses its lessonId as the content id; a
// track without a unitId lands in a unit keyed by its course id so the
// hierarchy stays navigable.
func BuildCoursesFromTracks(tracks []LessonTrack) []search.Course {
	var courses []search.Course

	for _, track := range tracks {
		if track.CourseID == "" {
			continue
		}
		contentID := track.ContentID
		if contentID == "" {
			contentID = track.LessonID
		}
		if contentID == "" {
			continue
		}
		unitID := track.UnitID
		if unitID == "" {
			unitID = track.CourseID
		}

		ci := findCourse(courses, track.CourseID)
		if ci < 0 {
			courses = append(courses, search.Course{CourseID: track.CourseID, Title: track.CourseName})
			ci = len(courses) - 1
		}
		ui := findUnit(courses[ci].Units, unitID)
		if ui < 0 {
			courses[ci].Units = append(courses[ci].Units, search.Unit{UnitID: unitID, Title: track.UnitName})
			ui = len(courses[ci].Units) - 1
		}

		content := search.Content{
			ContentID:     contentID,
			LessonID:      track.LessonID,
			Title:         track.LessonName,
			LessonTrackID: track.LessonTrackID,
			Status:        search.StatusForPercent(track.CompletionPercentage),
			Tracking: search.Tracking{
				PercentComplete: track.CompletionPercentage,
				CurrentPosition: track.CurrentPosition,
				TimeSpent:       track.TimeSpent,
			},
		}

		unit := &courses[ci].Units[ui]
		idx := findContent(unit.Contents, contentID)
		if idx < 0 {
			unit.Contents = append(unit.Contents, content)
			continue
		}
		// Same content reported twice inside one batch: keep the record
		// with more progress, the dedup pass settles cross-unit repeats.
		if content.Tracking.PercentComplete > unit.Contents[idx].Tracking.PercentComplete {
			unit.Contents[idx] = content
		}
	}
	return courses
}

// AttachCourses merges the rebuilt course list into the applications. A
// course lands on the application already carrying its courseId; courses no
// application knows yet go to the first application. Tracks for a user with
// no applications are dropped with a warning since course progress is
// meaningless outside an enrollment.
func AttachCourses(applications []search.Application, courses []search.Course, log zerolog.Logger) []search.Application {
	if len(courses) == 0 {
		return applications
	}
	if len(applications) == 0 {
		log.Warn().Int("courses", len(courses)).Msg("lesson tracks present but user has no applications; dropping course data")
		return applications
	}

	merged := make([]search.Application, len(applications))
	copy(merged, applications)

	for _, course := range courses {
		target := 0
		for i := range merged {
			if findCourse(merged[i].Courses, course.CourseID) >= 0 {
				target = i
				break
			}
		}
		payload := payloadFromCourses([]search.Course{course})
		merged[target].Courses = MergeCourseHierarchy(merged[target].Courses, payload)
		merged[target].Courses = applyTracking(merged[target].Courses, course)
	}
	return merged
}

// payloadFromCourses projects built course nodes onto the hierarchy payload
// so AttachCourses reuses the single upsert implementation.
func payloadFromCourses(courses []search.Course) HierarchyPayload {
	var payload HierarchyPayload
	for _, c := range courses {
		cp := CoursePayload{CourseID: c.CourseID, Title: c.Title}
		for _, u := range c.Units {
			up := UnitPayload{UnitID: u.UnitID, Title: u.Title}
			for _, ct := range u.Contents {
				up.Contents = append(up.Contents, ContentPayload{
					ContentID: ct.ContentID,
					LessonID:  ct.LessonID,
					Title:     ct.Title,
					Type:      ct.Type,
				})
			}
			cp.Units = append(cp.Units, up)
		}
		payload.Courses = append(payload.Courses, cp)
	}
	return payload
}

// applyTracking copies fresh tracking data from the built course onto the
// merged tree. Unlike hierarchy merges, tracking records are authoritative
// for the contents they name: a newer track for an existing content wins
// when it reports at least as much progress.
func applyTracking(courses []search.Course, built search.Course) []search.Course {
	ci := findCourse(courses, built.CourseID)
	if ci < 0 {
		return courses
	}
	for _, bu := range built.Units {
		ui := findUnit(courses[ci].Units, bu.UnitID)
		if ui < 0 {
			continue
		}
		unit := &courses[ci].Units[ui]
		for _, bc := range bu.Contents {
			idx := findContent(unit.Contents, bc.ContentID)
			if idx < 0 {
				continue
			}
			current := &unit.Contents[idx]
			if bc.Tracking.PercentComplete >= current.Tracking.PercentComplete {
				// Assessment fields are owned by the assessment merge, keep them.
				answers := current.Tracking.Answers
				questionsAttempted := current.Tracking.QuestionsAttempted
				totalQuestions := current.Tracking.TotalQuestions
				score := current.Tracking.Score

				current.Tracking = bc.Tracking
				current.Tracking.Answers = answers
				current.Tracking.QuestionsAttempted = questionsAttempted
				current.Tracking.TotalQuestions = totalQuestions
				current.Tracking.Score = score
				current.Status = search.StatusForPercent(current.Tracking.PercentComplete)
				if bc.LessonTrackID != "" {
					current.LessonTrackID = bc.LessonTrackID
				}
			} else if bc.LessonTrackID != "" && current.LessonTrackID == "" {
				current.LessonTrackID = bc.LessonTrackID
			}
		}
	}
	return courses
}
