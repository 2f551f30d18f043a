package merger

import (
	"encoding/json"
	"time"

	"github.com/tekdi/user-microservice-sub001/search"
)

// AttemptRecord is one assessment attempt as returned by the assessment
// collaborator, enriched with its answers. Status "error" marks an attempt
// whose answers could not be fetched; it still attaches, with no answers.
type AttemptRecord struct {
	AttemptID          string          `json:"attemptId"`
	TestID             string          `json:"testId"`
	LessonID           string          `json:"lessonId"`
	TotalQuestions     int             `json:"totalQuestions"`
	QuestionsAttempted int             `json:"questionsAttempted"`
	Score              float64         `json:"score"`
	PercentComplete    float64         `json:"percentComplete"`
	TimeSpent          int             `json:"timeSpent"`
	Status             string          `json:"status"`
	UpdatedAt          time.Time       `json:"updatedAt"`
	Answers            []AttemptAnswer `json:"answers"`
}

// AttemptAnswer carries the raw answer value untouched; upstream delivers
// several shapes (plain string, {selectedOptionIds}, {text}, {answer,text})
// and normalization happens here, not at the HTTP boundary.
type AttemptAnswer struct {
	QuestionID   string          `json:"questionId"`
	Type         string          `json:"type"`
	Value        json.RawMessage `json:"submittedAnswer"`
	Score        *float64        `json:"score"`
	ReviewStatus string          `json:"reviewStatus"`
}

// AttachAssessmentAnswers matches attempt records onto Content nodes by
// contentId against testId, attemptId, then lessonId (first non-empty
// match). When several records match one content the latest updatedAt wins.
// Content status is recomputed from the attached percentComplete.
func AttachAssessmentAnswers(applications []search.Application, records []AttemptRecord) []search.Application {
	if len(records) == 0 {
		return applications
	}

	merged := make([]search.Application, len(applications))
	copy(merged, applications)

	for a := range merged {
		for c := range merged[a].Courses {
			for u := range merged[a].Courses[c].Units {
				unit := &merged[a].Courses[c].Units[u]
				for i := range unit.Contents {
					record, ok := bestRecordFor(unit.Contents[i].ContentID, records)
					if !ok {
						continue
					}
					applyAttempt(&unit.Contents[i], record)
				}
			}
		}
	}
	return merged
}

// bestRecordFor selects the latest matching record for a content id.
func bestRecordFor(contentID string, records []AttemptRecord) (AttemptRecord, bool) {
	var best AttemptRecord
	found := false
	for _, record := range records {
		if !recordMatches(contentID, record) {
			continue
		}
		if !found || record.UpdatedAt.After(best.UpdatedAt) {
			best = record
			found = true
		}
	}
	return best, found
}

func recordMatches(contentID string, record AttemptRecord) bool {
	if contentID == "" {
		return false
	}
	switch {
	case record.TestID != "":
		return record.TestID == contentID
	case record.AttemptID != "":
		return record.AttemptID == contentID
	case record.LessonID != "":
		return record.LessonID == contentID
	}
	return false
}

func applyAttempt(content *search.Content, record AttemptRecord) {
	content.Tracking.TotalQuestions = record.TotalQuestions
	content.Tracking.QuestionsAttempted = record.QuestionsAttempted
	content.Tracking.Score = record.Score
	content.Tracking.PercentComplete = record.PercentComplete
	if record.TimeSpent > 0 {
		content.Tracking.TimeSpent = record.TimeSpent
	}
	content.Tracking.Answers = normalizeAnswers(record.Answers)
	content.Status = search.StatusForPercent(record.PercentComplete)
	if record.Status == "error" {
		// Answers fetch failed for this attempt; keep the attempt visible
		// without answers rather than dropping it.
		content.Tracking.Answers = nil
	}
}

func normalizeAnswers(raw []AttemptAnswer) []search.Answer {
	if len(raw) == 0 {
		return nil
	}
	answers := make([]search.Answer, 0, len(raw))
	for _, aa := range raw {
		answers = append(answers, search.Answer{
			QuestionID:      aa.QuestionID,
			Type:            aa.Type,
			SubmittedAnswer: NormalizeSubmittedAnswer(aa.Value),
			Score:           aa.Score,
			ReviewStatus:    aa.ReviewStatus,
		})
	}
	return answers
}

// NormalizeSubmittedAnswer folds the upstream answer shapes into one
// canonical value: a string stays a string, {selectedOptionIds} becomes the
// id list, {text} becomes its text, {answer,text} prefers answer and falls
// back to text. Anything unrecognized is kept stringified so it is never
// silently lost.
func NormalizeSubmittedAnswer(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj struct {
		SelectedOptionIDs []string        `json:"selectedOptionIds"`
		Text              *string         `json:"text"`
		Answer            json.RawMessage `json:"answer"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		switch {
		case obj.SelectedOptionIDs != nil:
			return obj.SelectedOptionIDs
		case len(obj.Answer) > 0:
			return NormalizeSubmittedAnswer(obj.Answer)
		case obj.Text != nil:
			return *obj.Text
		}
	}

	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err == nil {
		if list, ok := anyValue.([]any); ok {
			return list
		}
	}
	return string(raw)
}
