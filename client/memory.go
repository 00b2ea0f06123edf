package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store. It backs dry runs, where the sync should
// behave exactly like production without touching the management system,
// and doubles as the test double for the reconciliation engine.
type MemStore struct {
	mu           sync.Mutex
	requirements map[string]Requirement
	cases        map[string]TestCase
	runs         map[string]TestRun
	plans        map[string]Plan
	records      map[string][]TestRecord
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		requirements: make(map[string]Requirement),
		cases:        make(map[string]TestCase),
		runs:         make(map[string]TestRun),
		plans:        make(map[string]Plan),
		records:      make(map[string][]TestRecord),
	}
}

func memKey(project, id string) string {
	return project + "/" + id
}

func (m *MemStore) RequirementByTitle(ctx context.Context, project, title string) (*Requirement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requirements[memKey(project, title)]
	if !ok {
		return nil, ErrNotFound
	}
	return &req, nil
}

func (m *MemStore) CreateRequirement(ctx context.Context, req Requirement) (*Requirement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey(req.Project, req.Title)
	if _, ok := m.requirements[key]; ok {
		return nil, ErrConflict
	}
	if req.WorkItemID == "" {
		req.WorkItemID = uuid.New().String()
	}
	m.requirements[key] = req
	return &req, nil
}

func (m *MemStore) TestCaseByIdentity(ctx context.Context, project, identity string) (*TestCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tc, ok := m.cases[memKey(project, identity)]
	if !ok {
		return nil, ErrNotFound
	}
	return &tc, nil
}

func (m *MemStore) CreateTestCase(ctx context.Context, tc TestCase) (*TestCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tc.Identity == "" {
		return nil, fmt.Errorf("test case identity is required")
	}
	key := memKey(tc.Project, tc.Identity)
	if _, ok := m.cases[key]; ok {
		return nil, ErrConflict
	}
	if tc.WorkItemID == "" {
		tc.WorkItemID = uuid.New().String()
	}
	m.cases[key] = tc
	return &tc, nil
}

func (m *MemStore) UpdateTestCase(ctx context.Context, tc TestCase) (*TestCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey(tc.Project, tc.Identity)
	existing, ok := m.cases[key]
	if !ok {
		return nil, ErrNotFound
	}
	tc.WorkItemID = existing.WorkItemID
	m.cases[key] = tc
	return &tc, nil
}

func (m *MemStore) TestRunByID(ctx context.Context, project, runID string) (*TestRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[memKey(project, runID)]
	if !ok {
		return nil, ErrNotFound
	}
	return &run, nil
}

func (m *MemStore) CreateTestRun(ctx context.Context, run TestRun) (*TestRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey(run.Project, run.ID)
	if _, ok := m.runs[key]; ok {
		return nil, ErrConflict
	}
	m.runs[key] = run
	return &run, nil
}

func (m *MemStore) PlanByID(ctx context.Context, project, planID string) (*Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	plan, ok := m.plans[memKey(project, planID)]
	if !ok {
		return nil, ErrNotFound
	}
	return &plan, nil
}

func (m *MemStore) CreatePlan(ctx context.Context, plan Plan) (*Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey(plan.Project, plan.ID)
	if _, ok := m.plans[key]; ok {
		return nil, ErrConflict
	}
	m.plans[key] = plan
	return &plan, nil
}

func (m *MemStore) BeginBatch(ctx context.Context, project, runID string) (RunBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey(project, runID)
	if _, ok := m.runs[key]; !ok {
		return nil, ErrNotFound
	}
	return &memBatch{store: m, key: key}, nil
}

func (m *MemStore) Close() error {
	return nil
}

// Records returns the committed records of a run, in commit order.
func (m *MemStore) Records(project, runID string) []TestRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := m.records[memKey(project, runID)]
	out := make([]TestRecord, len(records))
	copy(out, records)
	return out
}

// memBatch buffers records until Commit makes them visible on the store.
type memBatch struct {
	store   *MemStore
	key     string
	pending []TestRecord
	done    bool
	mtx     sync.Mutex
}

func (b *memBatch) AddRecord(ctx context.Context, rec TestRecord) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if b.done {
		return fmt.Errorf("record batch is closed")
	}
	b.pending = append(b.pending, rec)
	return nil
}

func (b *memBatch) Commit(ctx context.Context) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if b.done {
		return fmt.Errorf("record batch is closed")
	}
	b.done = true

	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	b.store.records[b.key] = append(b.store.records[b.key], b.pending...)
	b.pending = nil
	return nil
}

func (b *memBatch) Rollback(ctx context.Context) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.done = true
	b.pending = nil
}
