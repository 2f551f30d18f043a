// Package merger holds the pure reconciliation functions that fold fetched
// fragments into the canonical user document. Nothing in this package does
// I/O; every function takes values and returns values so the orchestrator
// can run it against copies.
package merger

import "github.com/tekdi/user-microservice-sub001/search"

// HierarchyPayload is the validated course/unit/content tree delivered by a
// course-hierarchy event or rebuilt from lesson tracks.
type HierarchyPayload struct {
	Courses []CoursePayload `json:"courses"`
}

type CoursePayload struct {
	CourseID string          `json:"courseId"`
	Title    string          `json:"title"`
	Units    []UnitPayload   `json:"units"`
}

type UnitPayload struct {
	UnitID   string           `json:"unitId"`
	Title    string           `json:"title"`
	Contents []ContentPayload `json:"contents"`
}

type ContentPayload struct {
	ContentID string `json:"contentId"`
	LessonID  string `json:"lessonId"`
	Title     string `json:"title"`
	Type      string `json:"type"`
}

// MergeCourseHierarchy upserts the incoming tree into existing by
// courseId/unitId/contentId. Titles refresh on every delivery; tracking data
// on a Content that already exists is never overwritten; only brand-new
// Content nodes start with fresh (empty) tracking.
func MergeCourseHierarchy(existing []search.Course, incoming HierarchyPayload) []search.Course {
	merged := make([]search.Course, len(existing))
	copy(merged, existing)

	for _, cp := range incoming.Courses {
		if cp.CourseID == "" {
			continue
		}
		ci := findCourse(merged, cp.CourseID)
		if ci < 0 {
			merged = append(merged, search.Course{CourseID: cp.CourseID})
			ci = len(merged) - 1
		}
		if cp.Title != "" {
			merged[ci].Title = cp.Title
		}
		merged[ci].Units = mergeUnits(merged[ci].Units, cp.Units)
	}
	return merged
}

func mergeUnits(existing []search.Unit, incoming []UnitPayload) []search.Unit {
	merged := make([]search.Unit, len(existing))
	copy(merged, existing)

	for _, up := range incoming {
		if up.UnitID == "" {
			continue
		}
		ui := findUnit(merged, up.UnitID)
		if ui < 0 {
			merged = append(merged, search.Unit{UnitID: up.UnitID})
			ui = len(merged) - 1
		}
		if up.Title != "" {
			merged[ui].Title = up.Title
		}
		merged[ui].Contents = mergeContents(merged[ui].Contents, up.Contents)
	}
	return merged
}

func mergeContents(existing []search.Content, incoming []ContentPayload) []search.Content {
	merged := make([]search.Content, len(existing))
	copy(merged, existing)

	for _, cp := range incoming {
		if cp.ContentID == "" {
			continue
		}
		idx := findContent(merged, cp.ContentID)
		if idx < 0 {
			merged = append(merged, search.Content{
				ContentID: cp.ContentID,
				LessonID:  cp.LessonID,
				Title:     cp.Title,
				Type:      cp.Type,
				Status:    search.StatusNotStarted,
			})
			continue
		}
		// Existing node: refresh descriptive fields, keep tracking intact.
		if cp.Title != "" {
			merged[idx].Title = cp.Title
		}
		if cp.Type != "" {
			merged[idx].Type = cp.Type
		}
		if cp.LessonID != "" && merged[idx].LessonID == "" {
			merged[idx].LessonID = cp.LessonID
		}
	}
	return merged
}

func findCourse(courses []search.Course, id string) int {
	for i := range courses {
		if courses[i].CourseID == id {
			return i
		}
	}
	return -1
}

func findUnit(units []search.Unit, id string) int {
	for i := range units {
		if units[i].UnitID == id {
			return i
		}
	}
	return -1
}

func findContent(contents []search.Content, id string) int {
	for i := range contents {
		if contents[i].ContentID == id {
			return i
		}
	}
	return -1
}
