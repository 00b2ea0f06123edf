package reconciler

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/testman-sync/client"
	"github.com/ethereum-optimism/infra/testman-sync/steps"
	"github.com/ethereum-optimism/infra/testman-sync/types"
)

// CaseOutcome describes what a reconciliation did with one catalog entry.
type CaseOutcome string

const (
	// CaseCreated means the test case did not exist and was created.
	CaseCreated CaseOutcome = "created"
	// CaseExisting means the test case already existed and was left as is.
	CaseExisting CaseOutcome = "existing"
	// CaseUpdated means the test case existed and its fields were rewritten.
	CaseUpdated CaseOutcome = "updated"
	// CaseCollected means the entry was resolved locally without store calls.
	CaseCollected CaseOutcome = "collected"
)

// defaultCaseFields is the classification applied to created test cases when
// the catalog entry does not override it.
var defaultCaseFields = map[string]string{
	"caseautomation": "automated",
	"casecomponent":  "-",
	"caseimportance": "medium",
	"caselevel":      "component",
	"caseposneg":     "positive",
	"subtype1":       "-",
	"testtype":       "functional",
	"upstream":       "no",
}

// CaseReconciler creates or updates the test case for each catalog entry.
// Entries reconcile independently: a failed entry is reported and the rest
// of the catalog proceeds.
type CaseReconciler struct {
	sctx *SyncContext
	log  log.Logger
}

// NewCaseReconciler creates a reconciler backed by the shared sync state.
func NewCaseReconciler(sctx *SyncContext) *CaseReconciler {
	return &CaseReconciler{
		sctx: sctx,
		log:  sctx.log,
	}
}

// Reconcile resolves one catalog entry against the store. Existing cases are
// cached and reported as existing; missing ones are created under the
// module's requirement. With ForceUpdate an existing case has its fields
// rewritten from the catalog while keeping its work item ID.
func (r *CaseReconciler) Reconcile(ctx context.Context, entry types.CatalogEntry) (CaseOutcome, error) {
	identity := entry.Identity()

	if r.sctx.cfg.CollectOnly {
		r.log.Debug("Collected test case", "identity", identity)
		return CaseCollected, nil
	}

	if _, ok := r.sctx.CachedCase(identity); ok {
		return CaseExisting, nil
	}

	existing, err := r.sctx.cfg.Store.TestCaseByIdentity(ctx, r.sctx.cfg.Project, identity)
	switch {
	case err == nil:
		if r.sctx.cfg.ForceUpdate {
			return r.update(ctx, identity, entry, existing)
		}
		r.sctx.StoreCase(identity, existing)
		r.log.Debug("Test case already exists", "identity", identity, "work_item_id", existing.WorkItemID)
		return CaseExisting, nil
	case client.IsNotFound(err):
		return r.create(ctx, identity, entry)
	default:
		return "", fmt.Errorf("failed to look up test case %q: %w", identity, err)
	}
}

func (r *CaseReconciler) create(ctx context.Context, identity string, entry types.CatalogEntry) (CaseOutcome, error) {
	req, err := r.sctx.ensureRequirement(ctx, entry.RequirementTitle())
	if err != nil {
		return "", err
	}

	payload := r.casePayload(identity, entry)
	payload.Requirement = req.WorkItemID

	created, err := r.sctx.cfg.Store.CreateTestCase(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("failed to create test case %q: %w", identity, err)
	}
	r.sctx.StoreCase(identity, created)
	r.log.Info("Created test case", "identity", identity, "work_item_id", created.WorkItemID)
	return CaseCreated, nil
}

func (r *CaseReconciler) update(ctx context.Context, identity string, entry types.CatalogEntry, existing *client.TestCase) (CaseOutcome, error) {
	payload := r.casePayload(identity, entry)
	payload.WorkItemID = existing.WorkItemID
	payload.Requirement = existing.Requirement

	updated, err := r.sctx.cfg.Store.UpdateTestCase(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("failed to update test case %q: %w", identity, err)
	}
	r.sctx.StoreCase(identity, updated)
	r.log.Info("Updated test case", "identity", identity, "work_item_id", updated.WorkItemID)
	return CaseUpdated, nil
}

// casePayload builds the store representation of a catalog entry. Step and
// expected-result fragments are paired positionally; an entry with only one
// side keeps its description prose and gets no step table.
func (r *CaseReconciler) casePayload(identity string, entry types.CatalogEntry) client.TestCase {
	tc := client.TestCase{
		Project:     r.sctx.cfg.Project,
		Identity:    identity,
		Title:       entry.Name,
		Description: steps.Render(entry.Description),
		Tags:        entry.Tags,
		Fields:      r.caseFields(entry),
	}
	if len(entry.Steps) > 0 && len(entry.ExpectedResults) > 0 {
		tc.Steps = steps.Pair(entry.Steps, entry.ExpectedResults)
	}
	return tc
}

// caseFields layers the classification defaults, the sync-wide custom fields
// and the entry's own fields, in that order of precedence.
func (r *CaseReconciler) caseFields(entry types.CatalogEntry) map[string]string {
	fields := make(map[string]string, len(defaultCaseFields)+len(r.sctx.cfg.CustomFields)+len(entry.Fields))
	for k, v := range defaultCaseFields {
		fields[k] = v
	}
	for k, v := range r.sctx.cfg.CustomFields {
		fields[k] = fieldString(v)
	}
	for k, v := range entry.Fields {
		fields[k] = v
	}
	return fields
}

// fieldString renders a resolved custom-field value for the store, which
// takes all case fields as strings.
func fieldString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
