package types

// ExecutionStatus represents the possible outcomes of a single test execution
// as reported by a JUnit-style results file.
type ExecutionStatus string

const (
	StatusPassed  ExecutionStatus = "passed"
	StatusFailure ExecutionStatus = "failure"
	StatusError   ExecutionStatus = "error"
	StatusSkipped ExecutionStatus = "skipped"
)

// StatusOrder is the canonical display order for execution statuses.
var StatusOrder = []ExecutionStatus{StatusPassed, StatusFailure, StatusError, StatusSkipped}

// Verdict is the test-record outcome vocabulary used by the management system.
type Verdict string

const (
	VerdictPassed  Verdict = "passed"
	VerdictFailed  Verdict = "failed"
	VerdictBlocked Verdict = "blocked"
)

// Verdict maps an execution status onto the management system's record
// vocabulary. Failures and errors both count as failed records; skipped
// executions are recorded as blocked. The second return is false for
// statuses with no mapping.
func (s ExecutionStatus) Verdict() (Verdict, bool) {
	switch s {
	case StatusPassed:
		return VerdictPassed, true
	case StatusFailure, StatusError:
		return VerdictFailed, true
	case StatusSkipped:
		return VerdictBlocked, true
	default:
		return "", false
	}
}

// Known reports whether the status is one of the recognized execution outcomes.
func (s ExecutionStatus) Known() bool {
	_, ok := s.Verdict()
	return ok
}

// Label returns the human-readable form of the status, e.g. "Passed".
func (s ExecutionStatus) Label() string {
	return TitleWords(string(s))
}

// Summary counts execution records per status.
type Summary map[ExecutionStatus]int

// Add increments the count for the given status.
func (s Summary) Add(status ExecutionStatus) {
	s[status]++
}

// Total returns the number of records across all statuses.
func (s Summary) Total() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}
