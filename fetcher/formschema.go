package fetcher

import "encoding/json"

// SchemaNode is the typed AST of a form schema. Top-level properties are
// pages; nested properties (including those reached through dependencies
// and their oneOf branches) declare fields. A node with neither children
// nor branches is a field leaf.
type SchemaNode struct {
	Type         string                 `json:"type"`
	Title        string                 `json:"title"`
	Properties   map[string]*SchemaNode `json:"properties"`
	Dependencies map[string]*SchemaNode `json:"dependencies"`
	OneOf        []*SchemaNode          `json:"oneOf"`
}

// ParseFormSchema decodes a stored form schema document.
func ParseFormSchema(raw []byte) (*SchemaNode, error) {
	if len(raw) == 0 {
		return &SchemaNode{}, nil
	}
	var root SchemaNode
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, err
	}
	return &root, nil
}

// FieldPageIndex walks the schema and returns fieldId -> page name for every
// field leaf, however deep the dependencies nest it.
func FieldPageIndex(root *SchemaNode) map[string]string {
	index := make(map[string]string)
	if root == nil {
		return index
	}
	for pageName, page := range root.Properties {
		collectFields(page, pageName, index)
	}
	return index
}

// PageFieldCounts returns the number of declared fields per page, used for
// page-completion and overall progress math.
func PageFieldCounts(root *SchemaNode) map[string]int {
	counts := make(map[string]int)
	for _, pageName := range FieldPageIndex(root) {
		counts[pageName]++
	}
	return counts
}

func collectFields(node *SchemaNode, pageName string, index map[string]string) {
	if node == nil {
		return
	}
	for key, child := range node.Properties {
		if child == nil {
			continue
		}
		if len(child.Properties) == 0 && len(child.Dependencies) == 0 && len(child.OneOf) == 0 {
			// First page to declare a field owns it; duplicate declarations
			// below dependency branches keep the original mapping.
			if _, ok := index[key]; !ok {
				index[key] = pageName
			}
			continue
		}
		collectFields(child, pageName, index)
	}
	for _, dep := range node.Dependencies {
		collectFields(dep, pageName, index)
	}
	for _, branch := range node.OneOf {
		collectFields(branch, pageName, index)
	}
}
