package search

import (
	"context"
	"net/http"

	"github.com/tekdi/user-microservice-sub001/apperrors"
)

// indexMapping declares customFields, applications and applications.courses
// as nested so array elements keep per-element query semantics. Text fields
// carry a .keyword sub-field for exact match and sorting.
var indexMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"userId": map[string]any{"type": "keyword"},
			"profile": map[string]any{
				"properties": map[string]any{
					"username":  textWithKeyword(),
					"firstName": textWithKeyword(),
					"lastName":  textWithKeyword(),
					"email":     textWithKeyword(),
					"mobile":    map[string]any{"type": "keyword"},
					"gender":    map[string]any{"type": "keyword"},
					"status":    map[string]any{"type": "keyword"},
					"customFields": map[string]any{
						"type": "nested",
						"properties": map[string]any{
							"fieldId": map[string]any{"type": "keyword"},
							"code":    map[string]any{"type": "keyword"},
							"label":   textWithKeyword(),
							"type":    map[string]any{"type": "keyword"},
							"value":   textWithKeyword(),
						},
					},
				},
			},
			"applications": map[string]any{
				"type": "nested",
				"properties": map[string]any{
					"cohortId":             map[string]any{"type": "keyword"},
					"formId":               map[string]any{"type": "keyword"},
					"submissionId":         map[string]any{"type": "keyword"},
					"cohortmemberstatus":   map[string]any{"type": "keyword"},
					"formstatus":           map[string]any{"type": "keyword"},
					"completionPercentage": map[string]any{"type": "integer"},
					"lastSavedAt":          map[string]any{"type": "date"},
					"submittedAt":          map[string]any{"type": "date"},
					"cohortDetails": map[string]any{
						"properties": map[string]any{
							"name":      textWithKeyword(),
							"type":      map[string]any{"type": "keyword"},
							"status":    map[string]any{"type": "keyword"},
							"programId": map[string]any{"type": "keyword"},
						},
					},
					"courses": map[string]any{
						"type": "nested",
						"properties": map[string]any{
							"courseId": map[string]any{"type": "keyword"},
							"title":    textWithKeyword(),
							"units": map[string]any{
								"properties": map[string]any{
									"unitId": map[string]any{"type": "keyword"},
									"title":  textWithKeyword(),
									"contents": map[string]any{
										"properties": map[string]any{
											"contentId":     map[string]any{"type": "keyword"},
											"lessonId":      map[string]any{"type": "keyword"},
											"lessonTrackId": map[string]any{"type": "keyword"},
											"status":        map[string]any{"type": "keyword"},
											"title":         textWithKeyword(),
										},
									},
								},
							},
						},
					},
				},
			},
			"createdAt": map[string]any{"type": "date"},
			"updatedAt": map[string]any{"type": "date"},
		},
	},
}

func textWithKeyword() map[string]any {
	return map[string]any{
		"type": "text",
		"fields": map[string]any{
			"keyword": map[string]any{"type": "keyword", "ignore_above": 256},
		},
	}
}

// EnsureIndex creates the index with its mapping when it does not exist yet.
// Any failure here is a startup configuration problem.
func (c *Client) EnsureIndex(ctx context.Context) error {
	head, err := c.http.R().SetContext(ctx).Head("/" + c.index)
	if err != nil {
		return &apperrors.ConfigurationError{Key: "SEARCH_INDEX_URL", Message: err.Error()}
	}
	if head.StatusCode() == http.StatusOK {
		return nil
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(indexMapping).
		Put("/" + c.index)
	if err != nil {
		return &apperrors.ConfigurationError{Key: "SEARCH_INDEX_URL", Message: err.Error()}
	}
	if resp.IsError() {
		return &apperrors.ConfigurationError{Key: "SEARCH_INDEX_NAME", Message: resp.String()}
	}
	c.log.Info().Str("index", c.index).Msg("created search index with nested mapping")
	return nil
}
