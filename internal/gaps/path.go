package gaps

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var indexPattern = regexp.MustCompile(`\[(\d+)\]`)

// PathExists reports whether a field path such as "experience[0].bullets[1]"
// or "skills.primary" resolves inside the JSON form of doc.
func PathExists(doc any, path string) bool {
	data, err := json.Marshal(doc)
	if err != nil {
		return false
	}
	var cur any
	if err := json.Unmarshal(data, &cur); err != nil {
		return false
	}

	for _, part := range strings.Split(indexPattern.ReplaceAllString(path, ".$1"), ".") {
		if part == "" {
			continue
		}
		switch node := cur.(type) {
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return false
			}
			cur = node[idx]
		case map[string]any:
			next, ok := node[part]
			if !ok {
				return false
			}
			cur = next
		default:
			return false
		}
	}
	return true
}

// SetPath returns a copy of the JSON form of doc with value stored at path.
// Missing objects and arrays along the way are created; arrays grow with
// nulls when the index is past their end.
func SetPath(doc any, path string, value any) (any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	var parts []string
	for _, p := range strings.Split(indexPattern.ReplaceAllString(path, ".$1"), ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty path")
	}
	return setIn(root, parts, value)
}

func setIn(node any, parts []string, value any) (any, error) {
	if len(parts) == 0 {
		return value, nil
	}
	key := parts[0]
	idx, isIndex := arrayIndex(key)

	switch n := node.(type) {
	case map[string]any:
		child, err := setIn(n[key], parts[1:], value)
		if err != nil {
			return nil, err
		}
		n[key] = child
		return n, nil
	case []any:
		if !isIndex {
			return nil, fmt.Errorf("%q is not an array index", key)
		}
		for len(n) <= idx {
			n = append(n, nil)
		}
		child, err := setIn(n[idx], parts[1:], value)
		if err != nil {
			return nil, err
		}
		n[idx] = child
		return n, nil
	case nil:
		if isIndex {
			return setIn([]any{}, parts, value)
		}
		return setIn(map[string]any{}, parts, value)
	default:
		return nil, fmt.Errorf("cannot descend into %T at %q", node, key)
	}
}

func arrayIndex(s string) (int, bool) {
	idx, err := strconv.Atoi(s)
	return idx, err == nil && idx >= 0
}
