// Package client talks to the test management system. Store is the
// behavioral contract the sync engine works against; the HTTP
// implementation is the production backend and the in-memory one backs
// dry runs and tests.
package client

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum-optimism/infra/testman-sync/types"
)

var (
	// ErrNotFound is returned when the management system has no entity
	// matching the lookup.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a create collides with an entity that
	// already exists.
	ErrConflict = errors.New("already exists")
)

// IsNotFound reports whether err means the looked-up entity is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err means the created entity already exists.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// Requirement is a requirement work item test cases link against.
type Requirement struct {
	WorkItemID string `json:"workItemId,omitempty"`
	Project    string `json:"project"`
	Title      string `json:"title"`
	Type       string `json:"type,omitempty"`
}

// TestCase is a test case work item. Identity is the stable dotted ID
// derived from the source tree; WorkItemID is assigned by the management
// system on create.
type TestCase struct {
	Identity    string            `json:"identity"`
	WorkItemID  string            `json:"workItemId,omitempty"`
	Project     string            `json:"project"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Requirement string            `json:"requirement,omitempty"`
	Steps       []types.StepPair  `json:"steps,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
}

// TestRun is a container for the records of one results file import.
type TestRun struct {
	ID       string         `json:"id"`
	Project  string         `json:"project"`
	Title    string         `json:"title,omitempty"`
	Template string         `json:"template,omitempty"`
	Type     string         `json:"type,omitempty"`
	Fields   map[string]any `json:"fields,omitempty"`
}

// TestRecord is one execution outcome attached to a test run.
type TestRecord struct {
	CaseWorkItemID string        `json:"caseWorkItemId"`
	Verdict        types.Verdict `json:"verdict"`
	Duration       float64       `json:"duration"`
	Executed       time.Time     `json:"executed"`
	ExecutedBy     string        `json:"executedBy,omitempty"`
	Comment        string        `json:"comment,omitempty"`
}

// Plan is a release or iteration plan.
type Plan struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Project  string `json:"project"`
	Parent   string `json:"parent,omitempty"`
	Template string `json:"template"`
}

// Store is the management system surface the sync engine needs. Lookups
// return ErrNotFound for absent entities and creates return ErrConflict
// when the entity already exists, so reconciliation can race safely.
// Implementations must be safe for concurrent use.
type Store interface {
	RequirementByTitle(ctx context.Context, project, title string) (*Requirement, error)
	CreateRequirement(ctx context.Context, req Requirement) (*Requirement, error)

	TestCaseByIdentity(ctx context.Context, project, identity string) (*TestCase, error)
	CreateTestCase(ctx context.Context, tc TestCase) (*TestCase, error)
	UpdateTestCase(ctx context.Context, tc TestCase) (*TestCase, error)

	TestRunByID(ctx context.Context, project, runID string) (*TestRun, error)
	CreateTestRun(ctx context.Context, run TestRun) (*TestRun, error)

	PlanByID(ctx context.Context, project, planID string) (*Plan, error)
	CreatePlan(ctx context.Context, plan Plan) (*Plan, error)

	// BeginBatch opens a record batch against an existing test run. Records
	// added to the batch become visible only on Commit.
	BeginBatch(ctx context.Context, project, runID string) (RunBatch, error)

	Close() error
}

// RunBatch collects test records for one run and applies them atomically.
// A batch may be shared by concurrent workers.
type RunBatch interface {
	AddRecord(ctx context.Context, rec TestRecord) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context)
}
