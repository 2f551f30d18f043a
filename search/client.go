package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Client is a thin wrapper over the document search store. Get returns
// (nil, nil) for a missing document; Update and Delete surface
// DocumentMissingError so callers can react to the race with a delete.
type Client struct {
	http  *resty.Client
	index string
	log   zerolog.Logger
}

// NewClient builds a Client against baseURL/index. username/password may be
// empty when the store runs without auth.
func NewClient(baseURL, index, username, password string, timeout time.Duration, log zerolog.Logger) *Client {
	hc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if username != "" {
		hc.SetBasicAuth(username, password)
	}
	return &Client{http: hc, index: index, log: log.With().Str("component", "search").Logger()}
}

// Index creates or fully replaces the document at id.
func (c *Client) Index(ctx context.Context, id string, doc *UserDocument) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(doc).
		Put(fmt.Sprintf("/%s/_doc/%s", c.index, id))
	if err != nil {
		return err
	}
	return c.writeError(resp, id)
}

// UpdateOptions tunes a partial update call.
type UpdateOptions struct {
	// RetryOnConflict asks the store itself to retry the update when the
	// document version moves. The orchestrator keeps its own bounded retry
	// on top for re-reads.
	RetryOnConflict int
}

// Update applies a partial document (deep-merged server side for object
// keys; arrays replace wholesale).
func (c *Client) Update(ctx context.Context, id string, partial map[string]any, opts UpdateOptions) error {
	req := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"doc": partial}).
		SetQueryParam("retry_on_conflict", fmt.Sprintf("%d", opts.RetryOnConflict))
	resp, err := req.Post(fmt.Sprintf("/%s/_update/%s", c.index, id))
	if err != nil {
		return err
	}
	return c.writeError(resp, id)
}

// UpdateScript applies a script-style transform to the document.
func (c *Client) UpdateScript(ctx context.Context, id, script string, params map[string]any) error {
	body := map[string]any{
		"script": map[string]any{
			"source": script,
			"lang":   "painless",
			"params": params,
		},
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(fmt.Sprintf("/%s/_update/%s", c.index, id))
	if err != nil {
		return err
	}
	return c.writeError(resp, id)
}

// Get fetches the document at id. A missing document is (nil, nil), not an
// error.
func (c *Client) Get(ctx context.Context, id string) (*UserDocument, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/%s/_doc/%s", c.index, id))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsError() {
		return nil, &RequestError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	var envelope struct {
		Found  bool            `json:"found"`
		Source json.RawMessage `json:"_source"`
	}
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse get response: %w", err)
	}
	if !envelope.Found {
		return nil, nil
	}
	var doc UserDocument
	if err := json.Unmarshal(envelope.Source, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document %s: %w", id, err)
	}
	return &doc, nil
}

// SearchOptions paginates and sorts a search call.
type SearchOptions struct {
	From int
	Size int
	Sort []map[string]any
}

// SearchResult is one page of hits.
type SearchResult struct {
	Total     int
	Documents []UserDocument
}

// Search runs a query against the index and unwraps the hits.
func (c *Client) Search(ctx context.Context, query map[string]any, opts SearchOptions) (*SearchResult, error) {
	size := opts.Size
	if size <= 0 {
		size = 10
	}
	body := map[string]any{
		"query": query,
		"from":  opts.From,
		"size":  size,
	}
	if len(opts.Sort) > 0 {
		body["sort"] = opts.Sort
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(fmt.Sprintf("/%s/_search", c.index))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, &RequestError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	var envelope struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source UserDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	result := &SearchResult{Total: envelope.Hits.Total.Value}
	for _, hit := range envelope.Hits.Hits {
		result.Documents = append(result.Documents, hit.Source)
	}
	return result, nil
}

// Delete removes the document at id. A missing document surfaces as
// DocumentMissingError.
func (c *Client) Delete(ctx context.Context, id string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/%s/_doc/%s", c.index, id))
	if err != nil {
		return err
	}
	return c.writeError(resp, id)
}

// BulkOp is one operation in a bulk request.
type BulkOp struct {
	Action string // index, update, delete
	ID     string
	Doc    any // document for index, partial for update, ignored for delete
}

// Bulk sends a newline-delimited bulk request and reports the first
// per-item failure, if any.
func (c *Client) Bulk(ctx context.Context, ops []BulkOp) error {
	if len(ops) == 0 {
		return nil
	}

	var sb strings.Builder
	for _, op := range ops {
		action, err := json.Marshal(map[string]any{
			op.Action: map[string]any{"_index": c.index, "_id": op.ID},
		})
		if err != nil {
			return err
		}
		sb.Write(action)
		sb.WriteByte('\n')

		switch op.Action {
		case "index":
			payload, err := json.Marshal(op.Doc)
			if err != nil {
				return err
			}
			sb.Write(payload)
			sb.WriteByte('\n')
		case "update":
			payload, err := json.Marshal(map[string]any{"doc": op.Doc})
			if err != nil {
				return err
			}
			sb.Write(payload)
			sb.WriteByte('\n')
		}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-ndjson").
		SetBody(sb.String()).
		Post("/_bulk")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return &RequestError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	var envelope struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
			Error  any `json:"error"`
		} `json:"items"`
	}
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return fmt.Errorf("failed to parse bulk response: %w", err)
	}
	if envelope.Errors {
		for _, item := range envelope.Items {
			for action, detail := range item {
				if detail.Error != nil {
					return fmt.Errorf("bulk %s failed with status %d: %v", action, detail.Status, detail.Error)
				}
			}
		}
	}
	return nil
}

// writeError maps non-2xx write responses onto the client's error types.
func (c *Client) writeError(resp *resty.Response, id string) error {
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return &DocumentMissingError{ID: id}
	case resp.StatusCode() == http.StatusConflict:
		return &VersionConflictError{ID: id}
	case resp.IsError():
		c.log.Error().Int("status", resp.StatusCode()).Str("id", id).Msg("index write failed")
		return &RequestError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}
