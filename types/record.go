package types

// ExecutionRecord captures the outcome of a single test execution parsed
// from a JUnit-style results file. Time is kept as the raw attribute string;
// it is validated only when a record is attached to a run.
type ExecutionRecord struct {
	ClassName string
	Name      string
	Status    ExecutionStatus
	Message   string
	Type      string
	Time      string
	File      string
	Line      string
}

// Identity returns the canonical test case ID the record refers to. The
// class name carries the dotted module path (and class, when present), so
// the identity is the normalized class name joined with the test name.
func (r ExecutionRecord) Identity() string {
	return CaseIdentity(r.ClassName, "", r.Name)
}
