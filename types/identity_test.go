package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaseIdentity(t *testing.T) {
	tests := []struct {
		name       string
		module     string
		class      string
		testName   string
		expectedID string
	}{
		{
			name:       "module with class and test",
			module:     "path/to/test_module.py",
			class:      "NameTestCase",
			testName:   "test_name",
			expectedID: "path.to.test_module.NameTestCase.test_name",
		},
		{
			name:       "module without class",
			module:     "path/to/test_module.py",
			class:      "",
			testName:   "test_name",
			expectedID: "path.to.test_module.test_name",
		},
		{
			name:       "already dotted module",
			module:     "path.to.test_module",
			class:      "NameTestCase",
			testName:   "test_name",
			expectedID: "path.to.test_module.NameTestCase.test_name",
		},
		{
			name:       "top-level module",
			module:     "test_module.py",
			class:      "",
			testName:   "test_name",
			expectedID: "test_module.test_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedID, CaseIdentity(tt.module, tt.class, tt.testName))
		})
	}
}

func TestExecutionRecordIdentity(t *testing.T) {
	record := ExecutionRecord{
		ClassName: "tests.api.test_login.LoginTestCase",
		Name:      "test_positive_login",
		Status:    StatusPassed,
	}
	assert.Equal(t, "tests.api.test_login.LoginTestCase.test_positive_login", record.Identity())
}

func TestRequirementTitle(t *testing.T) {
	tests := []struct {
		name          string
		module        string
		expectedTitle string
	}{
		{
			name:          "nested path with test prefix",
			module:        "tests/path/to/test_my_test_module.py",
			expectedTitle: "My Test Module",
		},
		{
			name:          "single word",
			module:        "test_module.py",
			expectedTitle: "Module",
		},
		{
			name:          "no test prefix",
			module:        "sanity/checks.py",
			expectedTitle: "Checks",
		},
		{
			name:          "no extension",
			module:        "tests/test_workflow",
			expectedTitle: "Workflow",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedTitle, RequirementTitle(tt.module))
		})
	}
}

func TestSanitizeRunID(t *testing.T) {
	tests := []struct {
		name     string
		runID    string
		expected string
	}{
		{
			name:     "clean ID passes through",
			runID:    "5_22_17-34",
			expected: "5_22_17-34",
		},
		{
			name:     "every rejected character is stripped",
			runID:    "go\\/.:*\"<>|~!@#$?%^&'()+`,=od",
			expected: "good",
		},
		{
			name:     "only rejected characters yields empty",
			runID:    "\\/.:*\"<>|~!@#$?%^&'()+`,=",
			expected: "",
		},
		{
			name:     "dots in timestamps are stripped",
			runID:    "2026-08-25T17:34:25.000854",
			expected: "2026-08-25T173425000854",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeRunID(tt.runID))
		})
	}
}

func TestPlanID(t *testing.T) {
	tests := []struct {
		name     string
		planName string
		expected string
	}{
		{
			name:     "spaces become underscores",
			planName: "Test Plan Name",
			expected: "Test_Plan_Name",
		},
		{
			name:     "single word passes through",
			planName: "Nightly",
			expected: "Nightly",
		},
		{
			name:     "rejected characters are stripped",
			planName: "Release 1.2 (candidate)",
			expected: "Release_12_candidate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PlanID(tt.planName))
		})
	}
}

func TestTitleWords(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{name: "lower words", in: "my test module", expected: "My Test Module"},
		{name: "mixed case is normalized", in: "HTTP api", expected: "Http Api"},
		{name: "empty", in: "", expected: ""},
		{name: "single status", in: "passed", expected: "Passed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TitleWords(tt.in))
		})
	}
}
