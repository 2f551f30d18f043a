package fetcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldPageIndexMapsFieldsToPages(t *testing.T) {
	raw := []byte(`{
		"type": "object",
		"properties": {
			"personal": {
				"type": "object",
				"properties": {
					"f-name": {"type": "string", "title": "Name"},
					"f-dob":  {"type": "string", "title": "Date of Birth"}
				}
			},
			"education": {
				"type": "object",
				"properties": {
					"f-school": {"type": "string"}
				}
			}
		}
	}`)

	schema, err := ParseFormSchema(raw)
	require.NoError(t, err)

	index := FieldPageIndex(schema)
	assert.Equal(t, "personal", index["f-name"])
	assert.Equal(t, "personal", index["f-dob"])
	assert.Equal(t, "education", index["f-school"])
	assert.Len(t, index, 3)
}

func TestFieldPageIndexWalksDependencies(t *testing.T) {
	raw := []byte(`{
		"properties": {
			"personal": {
				"properties": {
					"f-employed": {"type": "string"}
				},
				"dependencies": {
					"f-employed": {
						"oneOf": [
							{
								"properties": {
									"f-employer": {"type": "string"}
								}
							},
							{
								"properties": {
									"f-seeking": {"type": "boolean"}
								}
							}
						]
					}
				}
			}
		}
	}`)

	schema, err := ParseFormSchema(raw)
	require.NoError(t, err)

	index := FieldPageIndex(schema)
	assert.Equal(t, "personal", index["f-employed"])
	assert.Equal(t, "personal", index["f-employer"], "fields nested under dependency branches map to their page")
	assert.Equal(t, "personal", index["f-seeking"])
}

func TestPageFieldCounts(t *testing.T) {
	raw := []byte(`{
		"properties": {
			"p1": {"properties": {"a": {}, "b": {}}},
			"p2": {"properties": {"c": {}}}
		}
	}`)

	schema, err := ParseFormSchema(raw)
	require.NoError(t, err)

	counts := PageFieldCounts(schema)
	assert.Equal(t, 2, counts["p1"])
	assert.Equal(t, 1, counts["p2"])
}

func TestParseFormSchemaEmpty(t *testing.T) {
	schema, err := ParseFormSchema(nil)
	require.NoError(t, err)
	assert.Empty(t, FieldPageIndex(schema))
}

func TestParseFormSchemaMalformed(t *testing.T) {
	_, err := ParseFormSchema([]byte(`{"properties": 12}`))
	assert.Error(t, err)
}
