package fields

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		entries  []string
		expected map[string]any
	}{
		{
			name:     "nil entries",
			entries:  nil,
			expected: map[string]any{},
		},
		{
			name:     "no entries",
			entries:  []string{},
			expected: map[string]any{},
		},
		{
			name:     "single empty entry is skipped",
			entries:  []string{""},
			expected: map[string]any{},
		},
		{
			name:    "json object keeps typed values",
			entries: []string{`{"isautomated": true, "tier": 1, "arch": "x86_64"}`},
			expected: map[string]any{
				"isautomated": true,
				"tier":        float64(1),
				"arch":        "x86_64",
			},
		},
		{
			name:    "key=value entries",
			entries: []string{"field1=value1", "field2=value2"},
			expected: map[string]any{
				"field1": "value1",
				"field2": "value2",
			},
		},
		{
			name:    "value may contain equals signs",
			entries: []string{"query=a=b"},
			expected: map[string]any{
				"query": "a=b",
			},
		},
		{
			name:    "empty entries among valid ones are skipped",
			entries: []string{"arch=x86_64", "", "variant=server"},
			expected: map[string]any{
				"arch":    "x86_64",
				"variant": "server",
			},
		},
		{
			name:    "later duplicate wins",
			entries: []string{"arch=x86_64", "arch=ppc64"},
			expected: map[string]any{
				"arch": "ppc64",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := Resolve(tt.entries)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, resolved)
		})
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		entry   string
	}{
		{
			name:    "missing equals sign",
			entries: []string{"field1"},
			entry:   "field1",
		},
		{
			name:    "missing equals sign after valid entry",
			entries: []string{"field1=value1", "field2"},
			entry:   "field2",
		},
		{
			name:    "broken json object",
			entries: []string{`{"unterminated`},
			entry:   `{"unterminated`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.entries)
			require.Error(t, err)

			var resErr *ResolutionError
			require.True(t, errors.As(err, &resErr))
			assert.Equal(t, tt.entry, resErr.Entry)
		})
	}
}

func TestResolveJSONNeedsSingleEntry(t *testing.T) {
	// Two entries are never JSON, even if the first looks like it.
	_, err := Resolve([]string{`{"a": 1}`, "b=2"})
	require.Error(t, err)

	var resErr *ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, `{"a": 1}`, resErr.Entry)
}
