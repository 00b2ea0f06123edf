package reconciler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/testman-sync/client"
	"github.com/ethereum-optimism/infra/testman-sync/types"
)

// NotFoundError reports an execution record whose identity has no test case
// in the store. It unwraps to client.ErrNotFound.
type NotFoundError struct {
	Identity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no test case found for %q", e.Identity)
}

func (e *NotFoundError) Unwrap() error {
	return client.ErrNotFound
}

// RecordReconciler attaches execution records to a test run batch. Records
// reconcile independently: a record without a matching test case or with a
// malformed duration is reported and the rest of the report proceeds.
type RecordReconciler struct {
	sctx  *SyncContext
	batch client.RunBatch
	log   log.Logger
	now   func() time.Time
}

// NewRecordReconciler creates a reconciler that feeds the given batch.
func NewRecordReconciler(sctx *SyncContext, batch client.RunBatch) *RecordReconciler {
	return &RecordReconciler{
		sctx:  sctx,
		batch: batch,
		log:   sctx.log,
		now:   time.Now,
	}
}

// Reconcile resolves one execution record onto its test case and adds the
// resulting test record to the batch.
func (r *RecordReconciler) Reconcile(ctx context.Context, rec types.ExecutionRecord) error {
	identity := rec.Identity()

	tc, err := r.lookupCase(ctx, identity)
	if err != nil {
		return err
	}

	verdict, ok := rec.Status.Verdict()
	if !ok {
		return fmt.Errorf("unknown status %q for %q", rec.Status, identity)
	}

	duration, err := parseDuration(rec.Time)
	if err != nil {
		return fmt.Errorf("invalid duration for %q: %w", identity, err)
	}

	record := client.TestRecord{
		CaseWorkItemID: tc.WorkItemID,
		Verdict:        verdict,
		Duration:       duration,
		Executed:       r.now(),
		ExecutedBy:     r.sctx.cfg.User,
		Comment:        rec.Message,
	}
	if err := r.batch.AddRecord(ctx, record); err != nil {
		return fmt.Errorf("failed to attach record for %q: %w", identity, err)
	}
	r.log.Debug("Attached test record", "identity", identity, "verdict", verdict)
	return nil
}

// lookupCase resolves an identity to its test case, caching hits so repeated
// identities in one report cost a single store query.
func (r *RecordReconciler) lookupCase(ctx context.Context, identity string) (*client.TestCase, error) {
	if tc, ok := r.sctx.CachedCase(identity); ok {
		return tc, nil
	}
	tc, err := r.sctx.cfg.Store.TestCaseByIdentity(ctx, r.sctx.cfg.Project, identity)
	if client.IsNotFound(err) {
		return nil, &NotFoundError{Identity: identity}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up test case %q: %w", identity, err)
	}
	return r.sctx.StoreCase(identity, tc), nil
}

// parseDuration reads the report's seconds value. A missing value counts as
// zero; a malformed one fails the record.
func parseDuration(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
