package merger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tekdi/user-microservice-sub001/search"
)

func TestDeepMergeRecursesIntoMaps(t *testing.T) {
	dst := map[string]any{
		"profile": map[string]any{"firstName": "Asha", "email": "a@example.com"},
		"extra":   "keep",
	}
	src := map[string]any{
		"profile": map[string]any{"firstName": "Usha"},
	}

	merged := DeepMerge(dst, src)

	profile := merged["profile"].(map[string]any)
	assert.Equal(t, "Usha", profile["firstName"])
	assert.Equal(t, "a@example.com", profile["email"], "untouched keys survive")
	assert.Equal(t, "keep", merged["extra"])
}

func TestDeepMergeReplacesArraysWholesale(t *testing.T) {
	dst := map[string]any{"applications": []any{"a", "b", "c"}}
	src := map[string]any{"applications": []any{"z"}}

	merged := DeepMerge(dst, src)

	assert.Equal(t, []any{"z"}, merged["applications"], "arrays replace, never merge element-wise here")
}

func TestDeepMergeReplacesScalarWithMap(t *testing.T) {
	dst := map[string]any{"progress": "none"}
	src := map[string]any{"progress": map[string]any{"overall": 3}}

	merged := DeepMerge(dst, src)

	assert.Equal(t, map[string]any{"overall": 3}, merged["progress"])
}

func TestCloneDocumentIsIndependent(t *testing.T) {
	doc := &search.UserDocument{
		UserID: "u-1",
		Applications: []search.Application{
			{CohortID: "c1", Courses: []search.Course{{CourseID: "C1"}}},
		},
	}

	clone, err := CloneDocument(doc)
	require.NoError(t, err)

	clone.Applications[0].CohortID = "changed"
	clone.Applications[0].Courses[0].CourseID = "changed"

	assert.Equal(t, "c1", doc.Applications[0].CohortID)
	assert.Equal(t, "C1", doc.Applications[0].Courses[0].CourseID)
}

func TestCompletionPercentage(t *testing.T) {
	assert.Equal(t, 0, CompletionPercentage(0, 0))
	assert.Equal(t, 0, CompletionPercentage(5, 0))
	assert.Equal(t, 50, CompletionPercentage(1, 2))
	assert.Equal(t, 33, CompletionPercentage(1, 3))
	assert.Equal(t, 67, CompletionPercentage(2, 3))
	assert.Equal(t, 100, CompletionPercentage(3, 3))
	assert.Equal(t, 100, CompletionPercentage(7, 3), "clamped to 100")
	assert.Equal(t, 0, CompletionPercentage(-1, 3), "clamped to 0")
}
