package merger

import (
	"github.com/tekdi/user-microservice-sub001/models"
	"github.com/tekdi/user-microservice-sub001/search"
)

// RawCustomField pairs a field definition with the user's value before the
// profile projection strips relational metadata.
type RawCustomField struct {
	FieldID string
	Code    string
	Label   string
	Type    string
	Context string
	Value   string
}

// NormalizeProfileFields projects raw field values onto the compact profile
// CustomField shape. A field is excluded when its fieldId already appears
// inside any application's progress pages (application-scoped, not
// profile-scoped) or when its declared context is not the profile context.
func NormalizeProfileFields(raw []RawCustomField, applications []search.Application) []search.CustomField {
	applicationFields := make(map[string]bool)
	for _, app := range applications {
		for _, page := range app.Progress.Pages {
			for fieldID := range page.Fields {
				applicationFields[fieldID] = true
			}
		}
	}

	fields := make([]search.CustomField, 0, len(raw))
	for _, rf := range raw {
		if rf.FieldID == "" || applicationFields[rf.FieldID] {
			continue
		}
		if rf.Context != "" && rf.Context != models.ContextUsers {
			continue
		}
		fields = append(fields, search.CustomField{
			FieldID: rf.FieldID,
			Code:    rf.Code,
			Label:   rf.Label,
			Type:    rf.Type,
			Value:   rf.Value,
		})
	}
	return fields
}
