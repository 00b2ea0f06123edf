package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testman "github.com/ethereum-optimism/infra/testman-sync"
	"github.com/ethereum-optimism/infra/testman-sync/exitcodes"
)

func TestErrorExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "runtime error",
			err:      testman.NewRuntimeError(errors.New("bad config")),
			expected: exitcodes.RuntimeErr,
		},
		{
			name:     "wrapped runtime error",
			err:      fmt.Errorf("outer: %w", testman.NewRuntimeError(errors.New("bad config"))),
			expected: exitcodes.RuntimeErr,
		},
		{
			name:     "sync failure",
			err:      testman.NewSyncFailureError("3 of 10 test cases failed to sync"),
			expected: exitcodes.SyncFailure,
		},
		{
			name:     "unclassified error",
			err:      errors.New("something else"),
			expected: exitcodes.SyncFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, errorExitCode(tt.err))
		})
	}
}

// The error paths exit the process through the ExitErrHandler, so only
// passing invocations can run inside the test binary.

func TestTestResultsCommand(t *testing.T) {
	report := filepath.Join(t.TempDir(), "junit-results.xml")
	require.NoError(t, os.WriteFile(report, []byte(
		`<testsuite><testcase classname="tests.api.test_login" name="test_ok" time="0.1"/></testsuite>`,
	), 0644))

	err := newApp().RunContext(context.Background(),
		[]string{"testman-sync", "test-results", "--path", report})
	require.NoError(t, err)
}

func TestTestCaseCommandDryRun(t *testing.T) {
	catalog := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte(`
tests:
  - module: tests/api/test_login.py
    name: test_ok
`), 0644))

	err := newApp().RunContext(context.Background(),
		[]string{"testman-sync", "test-case", "--project", "TESTPROJ", "--catalog", catalog, "--dry-run"})
	require.NoError(t, err)
}

func TestTestPlanCommandDryRun(t *testing.T) {
	err := newApp().RunContext(context.Background(),
		[]string{"testman-sync", "test-plan", "--project", "TESTPROJ", "--name", "1.0 Beta", "--dry-run"})
	require.NoError(t, err)
}
