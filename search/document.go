package search

import "time"

// Content status values, derived from tracking.percentComplete only.
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// UserDocument is the denormalized per-user document stored in the search
// index. It is assembled from the relational store plus the tracking and
// assessment collaborators and only ever mutated through the merger package.
type UserDocument struct {
	UserID       string        `json:"userId"`
	Profile      Profile       `json:"profile"`
	Applications []Application `json:"applications"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

type Profile struct {
	Username     string        `json:"username,omitempty"`
	FirstName    string        `json:"firstName"`
	LastName     string        `json:"lastName"`
	Email        string        `json:"email"`
	Mobile       string        `json:"mobile,omitempty"`
	Gender       string        `json:"gender,omitempty"`
	Dob          string        `json:"dob,omitempty"`
	Status       string        `json:"status,omitempty"`
	CustomFields []CustomField `json:"customFields"`
}

// CustomField is the compact projection of a profile-scoped field value.
// Raw relational metadata (context, state, option lists) is stripped before
// storage.
type CustomField struct {
	FieldID string `json:"fieldId"`
	Code    string `json:"code"`
	Label   string `json:"label"`
	Type    string `json:"type"`
	Value   any    `json:"value"`
}

// Application is a user's enrollment record for one cohort. Unique by
// CohortID within a document.
type Application struct {
	CohortID             string        `json:"cohortId"`
	FormID               string        `json:"formId,omitempty"`
	SubmissionID         string        `json:"submissionId,omitempty"`
	CohortMemberStatus   string        `json:"cohortmemberstatus,omitempty"`
	FormStatus           string        `json:"formstatus,omitempty"`
	CompletionPercentage int           `json:"completionPercentage"`
	Progress             Progress      `json:"progress"`
	LastSavedAt          *time.Time    `json:"lastSavedAt,omitempty"`
	SubmittedAt          *time.Time    `json:"submittedAt,omitempty"`
	CohortDetails        CohortDetails `json:"cohortDetails"`
	Courses              []Course      `json:"courses"`
}

type CohortDetails struct {
	Name      string `json:"name,omitempty"`
	Type      string `json:"type,omitempty"`
	Status    string `json:"status,omitempty"`
	ProgramID string `json:"programId,omitempty"`
}

type Progress struct {
	Pages   map[string]PageProgress `json:"pages"`
	Overall OverallProgress         `json:"overall"`
}

type PageProgress struct {
	Completed bool           `json:"completed"`
	Fields    map[string]any `json:"fields"`
}

type OverallProgress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Course is unique by CourseID within an Application.
type Course struct {
	CourseID string `json:"courseId"`
	Title    string `json:"title,omitempty"`
	Units    []Unit `json:"units"`
}

// Unit is unique by UnitID within a Course.
type Unit struct {
	UnitID   string    `json:"unitId"`
	Title    string    `json:"title,omitempty"`
	Contents []Content `json:"contents"`
}

// Content is unique by ContentID within a Unit. A lessonTrackId appears on
// at most one Content across the whole document; the merger's dedup pass
// enforces that after every hierarchy or tracking merge.
type Content struct {
	ContentID     string   `json:"contentId"`
	LessonID      string   `json:"lessonId,omitempty"`
	Title         string   `json:"title,omitempty"`
	Type          string   `json:"type,omitempty"`
	LessonTrackID string   `json:"lessonTrackId,omitempty"`
	Status        string   `json:"status"`
	Tracking      Tracking `json:"tracking"`
}

type Tracking struct {
	PercentComplete    float64  `json:"percentComplete"`
	CurrentPosition    int      `json:"currentPosition,omitempty"`
	TimeSpent          int      `json:"timeSpent,omitempty"`
	QuestionsAttempted int      `json:"questionsAttempted,omitempty"`
	TotalQuestions     int      `json:"totalQuestions,omitempty"`
	Score              float64  `json:"score,omitempty"`
	Answers            []Answer `json:"answers"`
}

type Answer struct {
	QuestionID      string   `json:"questionId"`
	Type            string   `json:"type,omitempty"`
	SubmittedAnswer any      `json:"submittedAnswer"`
	Score           *float64 `json:"score,omitempty"`
	ReviewStatus    string   `json:"reviewStatus,omitempty"`
}

// StatusForPercent derives a Content status from a completion percentage.
func StatusForPercent(percent float64) string {
	switch {
	case percent <= 0:
		return StatusNotStarted
	case percent < 100:
		return StatusInProgress
	default:
		return StatusCompleted
	}
}
