package types

// CatalogEntry describes a single test known to the local test tree. Entries
// are produced by the discovery tooling and loaded from the catalog file; the
// markup fields (Description, Steps, ExpectedResults) hold raw markdown.
type CatalogEntry struct {
	Module          string            `yaml:"module"`
	Class           string            `yaml:"class,omitempty"`
	Name            string            `yaml:"name"`
	Description     string            `yaml:"description,omitempty"`
	Steps           string            `yaml:"steps,omitempty"`
	ExpectedResults string            `yaml:"expectedresults,omitempty"`
	Fields          map[string]string `yaml:"fields,omitempty"`
	Tags            []string          `yaml:"tags,omitempty"`
}

// Identity returns the canonical test case ID for the entry.
func (e CatalogEntry) Identity() string {
	return CaseIdentity(e.Module, e.Class, e.Name)
}

// RequirementTitle returns the title of the requirement the entry links to.
func (e CatalogEntry) RequirementTitle() string {
	return RequirementTitle(e.Module)
}

// StepPair is one step of a test case paired with its expected result. Both
// sides are rendered HTML fragments.
type StepPair struct {
	Step     string `json:"step"`
	Expected string `json:"expected"`
}
