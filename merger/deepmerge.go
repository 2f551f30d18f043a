package merger

import (
	"encoding/json"
	"math"

	"github.com/tekdi/user-microservice-sub001/search"
)

// DeepMerge folds src into dst: object keys merge recursively, arrays and
// scalars replace wholesale. This is the single merge policy for sectional
// updates: any element-wise array reconciliation must happen in the
// functions above before the result reaches DeepMerge.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for key, srcVal := range src {
		if srcMap, ok := srcVal.(map[string]any); ok {
			if dstMap, ok := dst[key].(map[string]any); ok {
				dst[key] = DeepMerge(dstMap, srcMap)
				continue
			}
		}
		dst[key] = srcVal
	}
	return dst
}

// CloneDocument returns a deep copy of the document via a JSON round trip,
// so merge functions can rework it without touching the indexed original.
func CloneDocument(doc *search.UserDocument) (*search.UserDocument, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var clone search.UserDocument
	if err := json.Unmarshal(payload, &clone); err != nil {
		return nil, err
	}
	return &clone, nil
}

// ToPartial projects a document slice (or the whole document) onto the
// generic map shape the index client's partial update expects.
func ToPartial(v any) (map[string]any, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var partial map[string]any
	if err := json.Unmarshal(payload, &partial); err != nil {
		return nil, err
	}
	return partial, nil
}

// CompletionPercentage recomputes the percentage from a progress snapshot.
// Never supplied ad hoc: 0 when total is 0, otherwise rounded and clamped
// to [0,100].
func CompletionPercentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(float64(completed) / float64(total) * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
