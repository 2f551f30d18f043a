package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "users", "", "", 2*time.Second, zerolog.Nop()), srv
}

func TestGetReturnsNilForMissingDocument(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	doc, err := client.Get(context.Background(), "u-1")
	require.NoError(t, err, "not-found is not an error on Get")
	assert.Nil(t, doc)
}

func TestGetUnwrapsSource(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/_doc/u-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"found":true,"_source":{"userId":"u-1","profile":{"firstName":"Asha"}}}`))
	})

	doc, err := client.Get(context.Background(), "u-1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "u-1", doc.UserID)
	assert.Equal(t, "Asha", doc.Profile.FirstName)
}

func TestUpdateSurfacesDocumentMissing(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := client.Update(context.Background(), "u-1", map[string]any{"profile": map[string]any{}}, UpdateOptions{})
	var missing *DocumentMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "u-1", missing.ID)
}

func TestUpdateSurfacesVersionConflict(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	err := client.Update(context.Background(), "u-1", map[string]any{}, UpdateOptions{})
	var conflict *VersionConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestUpdateWrapsPartialInDoc(t *testing.T) {
	var captured map[string]any
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/_update/u-1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"result":"updated"}`))
	})

	err := client.Update(context.Background(), "u-1", map[string]any{"updatedAt": "2026-01-01T00:00:00Z"}, UpdateOptions{})
	require.NoError(t, err)
	doc, ok := captured["doc"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2026-01-01T00:00:00Z", doc["updatedAt"])
}

func TestUpdateScriptSendsPainlessBody(t *testing.T) {
	var captured map[string]any
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/_update/u-1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"result":"updated"}`))
	})

	err := client.UpdateScript(context.Background(), "u-1",
		"ctx._source.applications.removeIf(a -> a.cohortId == params.cohortId)",
		map[string]any{"cohortId": "cohort-1"})
	require.NoError(t, err)

	script, ok := captured["script"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "painless", script["lang"])
	assert.Contains(t, script["source"], "params.cohortId")
	params, ok := script["params"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "cohort-1", params["cohortId"])
}

func TestUpdateScriptSurfacesVersionConflict(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	err := client.UpdateScript(context.Background(), "u-1", "ctx._source.updatedAt = params.now", nil)
	var conflict *VersionConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestIndexPutsDocument(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/users/_doc/u-1", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result":"created"}`))
	})

	err := client.Index(context.Background(), "u-1", &UserDocument{UserID: "u-1"})
	assert.NoError(t, err)
}

func TestDeleteMissingDocument(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := client.Delete(context.Background(), "u-1")
	var missing *DocumentMissingError
	assert.ErrorAs(t, err, &missing)
}

func TestSearchUnwrapsHits(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/_search", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"hits":{"total":{"value":2},"hits":[
			{"_source":{"userId":"u-1"}},
			{"_source":{"userId":"u-2"}}
		]}}`))
	})

	result, err := client.Search(context.Background(), map[string]any{"match_all": map[string]any{}}, SearchOptions{Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	require.Len(t, result.Documents, 2)
	assert.Equal(t, "u-2", result.Documents[1].UserID)
}

func TestBulkReportsItemFailure(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/_bulk", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"errors":true,"items":[{"index":{"status":400,"error":{"type":"mapper_parsing_exception"}}}]}`))
	})

	err := client.Bulk(context.Background(), []BulkOp{{Action: "index", ID: "u-1", Doc: &UserDocument{UserID: "u-1"}}})
	assert.Error(t, err)
}

func TestBulkNoOps(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty bulk")
	})
	assert.NoError(t, client.Bulk(context.Background(), nil))
}
