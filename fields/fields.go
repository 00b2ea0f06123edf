// Package fields resolves repeatable custom-field options into the map sent
// to the management system. A single JSON object entry carries typed values;
// any other shape is a list of key=value strings.
package fields

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ResolutionError reports a custom-field entry that could not be resolved.
type ResolutionError struct {
	Entry string
	Err   error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid custom field %q: %v", e.Entry, e.Err)
	}
	return fmt.Sprintf("custom field %q is not in key=value form", e.Entry)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Resolve turns the raw option values into a field map. A single entry
// starting with "{" is decoded as a JSON object and keeps its typed values.
// Otherwise every non-empty entry must be key=value; the value may itself
// contain "=" characters. Empty entries are skipped. The returned map is
// never nil.
func Resolve(entries []string) (map[string]any, error) {
	resolved := map[string]any{}
	if len(entries) == 0 {
		return resolved, nil
	}
	if len(entries) == 1 && strings.HasPrefix(entries[0], "{") {
		if err := json.Unmarshal([]byte(entries[0]), &resolved); err != nil {
			return nil, &ResolutionError{Entry: entries[0], Err: err}
		}
		return resolved, nil
	}
	for _, entry := range entries {
		if entry == "" {
			continue
		}
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, &ResolutionError{Entry: entry}
		}
		resolved[key] = value
	}
	return resolved, nil
}
