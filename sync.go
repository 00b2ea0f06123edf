package testman

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/ethereum-optimism/infra/testman-sync/client"
	"github.com/ethereum-optimism/infra/testman-sync/junitxml"
	"github.com/ethereum-optimism/infra/testman-sync/metrics"
	"github.com/ethereum-optimism/infra/testman-sync/reconciler"
	"github.com/ethereum-optimism/infra/testman-sync/registry"
	"github.com/ethereum-optimism/infra/testman-sync/types"
)

// Defaults applied when a test run has to be created.
const (
	runTemplate = "Empty"
	runType     = "buildacceptance"
)

// CaseSummary reports what one catalog sync did.
type CaseSummary struct {
	Project      string
	Catalog      string
	Modules      int
	Total        int
	Created      int
	Existing     int
	Updated      int
	Collected    int
	Failed       int
	Requirements int
	Duration     time.Duration
}

// RunSummary reports what one results import did.
type RunSummary struct {
	Project    string
	RunID      string
	CreatedRun bool
	Results    types.Summary
	Total      int
	Attached   int
	Failed     int
	Duration   time.Duration
}

// SyncCases reconciles every catalog entry against the store. Workers are
// partitioned by module so entries of one module never race each other; a
// failed entry is reported and the rest of the catalog proceeds. The error
// is a SyncFailureError when any entry failed.
func SyncCases(ctx context.Context, cfg *Config, store client.Store) (*CaseSummary, error) {
	start := time.Now()

	reg, err := registry.NewRegistry(registry.Config{
		Log:         cfg.Log,
		CatalogFile: cfg.CatalogFile,
	})
	if err != nil {
		return nil, NewRuntimeError(fmt.Errorf("failed to load test catalog: %w", err))
	}

	sctx := reconciler.NewSyncContext(reconciler.Config{
		Log:          cfg.Log,
		Store:        store,
		Project:      cfg.Project,
		User:         cfg.User,
		ForceUpdate:  cfg.ForceUpdate,
		CollectOnly:  cfg.CollectOnly,
		CustomFields: cfg.CustomFields,
	})
	caseRec := reconciler.NewCaseReconciler(sctx)

	modules := reg.Modules()
	cfg.Log.Info("Syncing test cases",
		"project", cfg.Project,
		"catalog", cfg.CatalogFile,
		"modules", len(modules),
		"entries", len(reg.Entries()),
		"jobs", cfg.Jobs)

	var created, existing, updated, collected, failed, done atomic.Int32

	p := pool.New().
		WithErrors().
		WithMaxGoroutines(cfg.Jobs).
		WithContext(ctx)
	for _, module := range modules {
		module := module
		p.Go(func(ctx context.Context) error {
			var errs []error
			for _, entry := range reg.EntriesByModule(module) {
				outcome, err := caseRec.Reconcile(ctx, entry)
				if err != nil {
					failed.Add(1)
					metrics.RecordErrorDetails("case_sync", err)
					cfg.Log.Error("Failed to sync test case", "identity", entry.Identity(), "err", err)
					errs = append(errs, fmt.Errorf("%s: %w", entry.Identity(), err))
					continue
				}
				switch outcome {
				case reconciler.CaseCreated:
					created.Add(1)
				case reconciler.CaseExisting:
					existing.Add(1)
				case reconciler.CaseUpdated:
					updated.Add(1)
				case reconciler.CaseCollected:
					collected.Add(1)
				}
			}
			cfg.Log.Info("Module synced",
				"module", module,
				"completed", done.Add(1),
				"total", len(modules))
			return errors.Join(errs...)
		})
	}
	poolErr := p.Wait()

	summary := &CaseSummary{
		Project:      cfg.Project,
		Catalog:      cfg.CatalogFile,
		Modules:      len(modules),
		Total:        len(reg.Entries()),
		Created:      int(created.Load()),
		Existing:     int(existing.Load()),
		Updated:      int(updated.Load()),
		Collected:    int(collected.Load()),
		Failed:       int(failed.Load()),
		Requirements: sctx.RequirementsCreated(),
		Duration:     time.Since(start),
	}
	metrics.RecordCaseSync(cfg.Project, summary.Created, summary.Existing, summary.Updated,
		summary.Collected, summary.Failed, summary.Requirements, summary.Duration)

	if poolErr != nil {
		return summary, NewSyncFailureError(fmt.Sprintf("%d of %d test cases failed to sync", summary.Failed, summary.Total))
	}
	return summary, nil
}

// SyncRun parses a JUnit-style results file and attaches a record for every
// execution to the test run, creating the run first when the store does not
// know it. All workers feed one batch, which commits after the pool drains;
// records that fail to resolve are reported without holding back the rest.
func SyncRun(ctx context.Context, cfg *Config, store client.Store) (*RunSummary, error) {
	start := time.Now()

	records, err := junitxml.ParseFile(cfg.ReportPath)
	if err != nil {
		return nil, NewRuntimeError(fmt.Errorf("failed to parse results file: %w", err))
	}

	runID := cfg.RunID
	if runID == "" {
		runID = fmt.Sprintf("test-run-%s", uuid.New().String())
		cfg.Log.Info("No test run ID given, generated one", "run_id", runID)
	}
	sanitized := types.SanitizeRunID(runID)
	if sanitized == "" {
		return nil, NewRuntimeError(fmt.Errorf("test run ID %q has no valid characters", runID))
	}
	if sanitized != runID {
		cfg.Log.Warn("Test run ID contained invalid characters", "run_id", runID, "sanitized", sanitized)
		runID = sanitized
	}

	createdRun, err := ensureRun(ctx, cfg, store, runID)
	if err != nil {
		return nil, err
	}

	batch, err := store.BeginBatch(ctx, cfg.Project, runID)
	if err != nil {
		return nil, NewRuntimeError(fmt.Errorf("failed to begin record batch: %w", err))
	}

	sctx := reconciler.NewSyncContext(reconciler.Config{
		Log:          cfg.Log,
		Store:        store,
		Project:      cfg.Project,
		User:         cfg.User,
		CustomFields: cfg.CustomFields,
	})
	recRec := reconciler.NewRecordReconciler(sctx, batch)

	cfg.Log.Info("Attaching test records",
		"project", cfg.Project,
		"run_id", runID,
		"records", len(records),
		"jobs", cfg.Jobs)

	var attached, failed atomic.Int32

	p := pool.New().
		WithErrors().
		WithMaxGoroutines(cfg.Jobs).
		WithContext(ctx)
	for _, rec := range records {
		rec := rec
		p.Go(func(ctx context.Context) error {
			if err := recRec.Reconcile(ctx, rec); err != nil {
				failed.Add(1)
				metrics.RecordErrorDetails("record_sync", err)
				cfg.Log.Error("Failed to attach test record", "identity", rec.Identity(), "err", err)
				return fmt.Errorf("%s: %w", rec.Identity(), err)
			}
			attached.Add(1)
			return nil
		})
	}
	poolErr := p.Wait()

	// Commit what reconciled even when some records failed.
	if err := batch.Commit(ctx); err != nil {
		batch.Rollback(ctx)
		return nil, NewRuntimeError(fmt.Errorf("failed to commit record batch: %w", err))
	}

	summary := &RunSummary{
		Project:    cfg.Project,
		RunID:      runID,
		CreatedRun: createdRun,
		Results:    junitxml.Summarize(records),
		Total:      len(records),
		Attached:   int(attached.Load()),
		Failed:     int(failed.Load()),
		Duration:   time.Since(start),
	}
	metrics.RecordRunSync(cfg.Project, runID, summary.Attached, summary.Failed, summary.Duration)

	if poolErr != nil {
		return summary, NewSyncFailureError(fmt.Sprintf("%d of %d test records failed to attach", summary.Failed, summary.Total))
	}
	return summary, nil
}

// ensureRun makes sure the test run exists, creating it with the import
// defaults when it does not. It reports whether a run was created.
func ensureRun(ctx context.Context, cfg *Config, store client.Store, runID string) (bool, error) {
	_, err := store.TestRunByID(ctx, cfg.Project, runID)
	if err == nil {
		cfg.Log.Debug("Test run already exists", "run_id", runID)
		return false, nil
	}
	if !client.IsNotFound(err) {
		return false, NewRuntimeError(fmt.Errorf("failed to look up test run %q: %w", runID, err))
	}

	_, err = store.CreateTestRun(ctx, client.TestRun{
		Project:  cfg.Project,
		ID:       runID,
		Template: runTemplate,
		Type:     runType,
		Fields:   cfg.CustomFields,
	})
	if client.IsConflict(err) {
		// Lost the race against a concurrent import; the run exists now.
		return false, nil
	}
	if err != nil {
		return false, NewRuntimeError(fmt.Errorf("failed to create test run %q: %w", runID, err))
	}
	cfg.Log.Info("Created test run", "run_id", runID)
	return true, nil
}

// Results parses a JUnit-style results file and tallies executions per
// status, without talking to the management system.
func Results(cfg *Config) (types.Summary, error) {
	records, err := junitxml.ParseFile(cfg.ReportPath)
	if err != nil {
		return nil, NewRuntimeError(fmt.Errorf("failed to parse results file: %w", err))
	}
	return junitxml.Summarize(records), nil
}

// CreatePlan creates the named plan unless one with the derived ID already
// exists. It reports whether a plan was created.
func CreatePlan(ctx context.Context, cfg *Config, store client.Store) (*client.Plan, bool, error) {
	planID := types.PlanID(cfg.PlanName)
	if planID == "" {
		return nil, false, NewRuntimeError(fmt.Errorf("plan name %q has no valid characters", cfg.PlanName))
	}

	existing, err := store.PlanByID(ctx, cfg.Project, planID)
	if err == nil {
		cfg.Log.Info("Plan already exists", "plan_id", planID)
		return existing, false, nil
	}
	if !client.IsNotFound(err) {
		return nil, false, NewRuntimeError(fmt.Errorf("failed to look up plan %q: %w", planID, err))
	}

	plan := client.Plan{
		ID:       planID,
		Name:     cfg.PlanName,
		Project:  cfg.Project,
		Template: cfg.PlanTemplate,
	}
	if cfg.PlanParentName != "" {
		plan.Parent = types.PlanID(cfg.PlanParentName)
	}

	created, err := store.CreatePlan(ctx, plan)
	if client.IsConflict(err) {
		cfg.Log.Info("Plan already exists", "plan_id", planID)
		existing, err := store.PlanByID(ctx, cfg.Project, planID)
		if err != nil {
			return nil, false, NewRuntimeError(fmt.Errorf("failed to look up plan %q: %w", planID, err))
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, NewRuntimeError(fmt.Errorf("failed to create plan %q: %w", planID, err))
	}
	cfg.Log.Info("Created plan", "plan_id", planID, "template", plan.Template)
	return created, true, nil
}
