package junitxml

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/testman-sync/types"
)

const sampleReport = `<testsuite errors="1" failures="1" skipped="1" tests="5" time="0.338">
  <testcase classname="tests.api.test_login.LoginTestCase" name="test_positive_login" time="0.01"/>
  <testcase classname="tests.api.test_login.LoginTestCase" name="test_negative_login" time="0.02">
    <failure message="AssertionError: expected 401" type="AssertionError">traceback</failure>
  </testcase>
  <testcase classname="tests.api.test_profile" name="test_update" time="0.30" file="tests/api/test_profile.py" line="42">
    <error message="RuntimeError: connection reset" type="RuntimeError"/>
  </testcase>
  <testcase classname="tests.api.test_profile" name="test_delete" time="0.008">
    <skipped message="not implemented" type="pytest.skip"/>
  </testcase>
  <testcase classname="tests.api.test_profile" name="test_read" time="0.004"/>
</testsuite>`

func TestParse(t *testing.T) {
	records, err := Parse(strings.NewReader(sampleReport))
	require.NoError(t, err)
	require.Len(t, records, 5)

	assert.Equal(t, types.ExecutionRecord{
		ClassName: "tests.api.test_login.LoginTestCase",
		Name:      "test_positive_login",
		Status:    types.StatusPassed,
		Time:      "0.01",
	}, records[0])

	assert.Equal(t, types.StatusFailure, records[1].Status)
	assert.Equal(t, "AssertionError: expected 401", records[1].Message)
	assert.Equal(t, "AssertionError", records[1].Type)

	assert.Equal(t, types.StatusError, records[2].Status)
	assert.Equal(t, "tests/api/test_profile.py", records[2].File)
	assert.Equal(t, "42", records[2].Line)

	assert.Equal(t, types.StatusSkipped, records[3].Status)
	assert.Equal(t, "not implemented", records[3].Message)

	assert.Equal(t, types.StatusPassed, records[4].Status)
}

func TestParseTestSuitesWrapper(t *testing.T) {
	wrapped := `<testsuites>
  <testsuite tests="1">
    <testcase classname="a.test_one" name="test_first"/>
  </testsuite>
  <testsuite tests="1">
    <testcase classname="b.test_two" name="test_second">
      <failure message="boom"/>
    </testcase>
  </testsuite>
</testsuites>`

	records, err := Parse(strings.NewReader(wrapped))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a.test_one.test_first", records[0].Identity())
	assert.Equal(t, types.StatusFailure, records[1].Status)
}

func TestParseStatusPriority(t *testing.T) {
	// A case reporting several outcomes keeps the highest-priority one.
	report := `<testsuite>
  <testcase classname="m" name="test_conflicted">
    <error message="err"/>
    <skipped message="skip"/>
    <failure message="fail"/>
  </testcase>
</testsuite>`

	records, err := Parse(strings.NewReader(report))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, types.StatusSkipped, records[0].Status)
	assert.Equal(t, "skip", records[0].Message)
}

func TestParseEmptySuite(t *testing.T) {
	records, err := Parse(strings.NewReader(`<testsuite tests="0"></testsuite>`))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "truncated document", input: `<testsuite><testcase classname="a" name="b">`},
		{name: "mismatched tags", input: `<testsuite><testcase classname="a" name="b"></testsuite>`},
		{name: "not xml at all", input: `{"tests": []}`},
		{name: "empty file", input: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "malformed results file")
		})
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "junit-results.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleReport), 0644))

	records, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, records, 5)
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "absent.xml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open results file")
}

func TestSummarize(t *testing.T) {
	records, err := Parse(strings.NewReader(sampleReport))
	require.NoError(t, err)

	summary := Summarize(records)
	assert.Equal(t, 2, summary[types.StatusPassed])
	assert.Equal(t, 1, summary[types.StatusFailure])
	assert.Equal(t, 1, summary[types.StatusError])
	assert.Equal(t, 1, summary[types.StatusSkipped])
	assert.Equal(t, 5, summary.Total())
}
