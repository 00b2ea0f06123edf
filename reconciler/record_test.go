package reconciler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/testman-sync/client"
	"github.com/ethereum-optimism/infra/testman-sync/types"
)

// setupRunBatch seeds a store with a test case and an open run batch.
func setupRunBatch(t *testing.T) (*client.MemStore, *SyncContext, client.RunBatch, *client.TestCase) {
	t.Helper()
	store := client.NewMemStore()

	tc, err := store.CreateTestCase(context.Background(), client.TestCase{
		Project:  "TESTPROJ",
		Identity: "tests.api.test_login.LoginTestCase.test_positive_login",
		Title:    "test_positive_login",
	})
	require.NoError(t, err)

	_, err = store.CreateTestRun(context.Background(), client.TestRun{
		Project: "TESTPROJ",
		ID:      "nightly-1",
	})
	require.NoError(t, err)

	batch, err := store.BeginBatch(context.Background(), "TESTPROJ", "nightly-1")
	require.NoError(t, err)

	return store, newTestContext(store), batch, tc
}

func passedRecord() types.ExecutionRecord {
	return types.ExecutionRecord{
		ClassName: "tests.api.test_login.LoginTestCase",
		Name:      "test_positive_login",
		Status:    types.StatusPassed,
		Time:      "1.132",
	}
}

func TestRecordReconcilerAttach(t *testing.T) {
	store, sctx, batch, tc := setupRunBatch(t)

	executed := time.Date(2024, 5, 14, 10, 30, 0, 0, time.UTC)
	r := NewRecordReconciler(sctx, batch)
	r.now = func() time.Time { return executed }

	require.NoError(t, r.Reconcile(context.Background(), passedRecord()))
	require.NoError(t, batch.Commit(context.Background()))

	records := store.Records("TESTPROJ", "nightly-1")
	require.Len(t, records, 1)
	assert.Equal(t, tc.WorkItemID, records[0].CaseWorkItemID)
	assert.Equal(t, types.VerdictPassed, records[0].Verdict)
	assert.Equal(t, 1.132, records[0].Duration)
	assert.Equal(t, executed, records[0].Executed)
	assert.Equal(t, "ci-sync", records[0].ExecutedBy)
}

func TestRecordReconcilerVerdicts(t *testing.T) {
	tests := []struct {
		status  types.ExecutionStatus
		verdict types.Verdict
	}{
		{status: types.StatusPassed, verdict: types.VerdictPassed},
		{status: types.StatusFailure, verdict: types.VerdictFailed},
		{status: types.StatusError, verdict: types.VerdictFailed},
		{status: types.StatusSkipped, verdict: types.VerdictBlocked},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			store, sctx, batch, _ := setupRunBatch(t)
			r := NewRecordReconciler(sctx, batch)

			rec := passedRecord()
			rec.Status = tt.status
			rec.Message = "check the logs"

			require.NoError(t, r.Reconcile(context.Background(), rec))
			require.NoError(t, batch.Commit(context.Background()))

			records := store.Records("TESTPROJ", "nightly-1")
			require.Len(t, records, 1)
			assert.Equal(t, tt.verdict, records[0].Verdict)
			assert.Equal(t, "check the logs", records[0].Comment)
		})
	}
}

func TestRecordReconcilerUnknownStatus(t *testing.T) {
	_, sctx, batch, _ := setupRunBatch(t)
	r := NewRecordReconciler(sctx, batch)

	rec := passedRecord()
	rec.Status = "mystery"

	err := r.Reconcile(context.Background(), rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status")
}

func TestRecordReconcilerMissingCase(t *testing.T) {
	store, sctx, batch, _ := setupRunBatch(t)
	r := NewRecordReconciler(sctx, batch)

	rec := passedRecord()
	rec.ClassName = "tests.api.test_logout"

	err := r.Reconcile(context.Background(), rec)
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err))

	var nfe *NotFoundError
	require.ErrorAs(t, err, &nfe)
	assert.Equal(t, "tests.api.test_logout.test_positive_login", nfe.Identity)

	// One missing case must not poison the batch for the records after it.
	require.NoError(t, r.Reconcile(context.Background(), passedRecord()))
	require.NoError(t, batch.Commit(context.Background()))
	assert.Len(t, store.Records("TESTPROJ", "nightly-1"), 1)
}

func TestRecordReconcilerDurations(t *testing.T) {
	t.Run("missing duration counts as zero", func(t *testing.T) {
		store, sctx, batch, _ := setupRunBatch(t)
		r := NewRecordReconciler(sctx, batch)

		rec := passedRecord()
		rec.Time = ""

		require.NoError(t, r.Reconcile(context.Background(), rec))
		require.NoError(t, batch.Commit(context.Background()))

		records := store.Records("TESTPROJ", "nightly-1")
		require.Len(t, records, 1)
		assert.Zero(t, records[0].Duration)
	})

	t.Run("malformed duration fails the record", func(t *testing.T) {
		_, sctx, batch, _ := setupRunBatch(t)
		r := NewRecordReconciler(sctx, batch)

		rec := passedRecord()
		rec.Time = "fast"

		err := r.Reconcile(context.Background(), rec)
		require.Error(t, err)
		assert.False(t, errors.Is(err, client.ErrNotFound))
		assert.Contains(t, err.Error(), "invalid duration")
	})
}

func TestRecordReconcilerWarmsCache(t *testing.T) {
	_, sctx, batch, tc := setupRunBatch(t)
	r := NewRecordReconciler(sctx, batch)

	identity := passedRecord().Identity()
	_, ok := sctx.CachedCase(identity)
	require.False(t, ok)

	require.NoError(t, r.Reconcile(context.Background(), passedRecord()))

	cached, ok := sctx.CachedCase(identity)
	require.True(t, ok)
	assert.Equal(t, tc.WorkItemID, cached.WorkItemID)
}
