package worker

import (
	"context"
	"testing"
	"time"

	"yantra/internal/config"
	"yantra/internal/store"
	"yantra/pkg/models"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// Reconcile's submission-finalization path never touches the broker, so a
// nil *broker.Broker is safe as long as no runtime build is stale enough to
// be re-enqueued.
func TestReconcileFinalizesStalledRunningSubmission(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.CreateRuntime(&models.Runtime{ID: "py", Name: "py", TimeoutSeconds: 5, BuildStatus: models.BuildReady, Enabled: true}))
	require.NoError(t, st.CreateSubmission(&models.Submission{JobID: "stuck", Language: "py", Status: models.StatusRunning}))

	past := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, markSubmissionCreatedAt(st, "stuck", past))

	w := New(st, nil, nil)
	w.Reconcile(context.Background())

	sub, err := st.GetSubmission("stuck")
	require.NoError(t, err)
	require.Equal(t, models.StatusError, sub.Status)
	require.NotNil(t, sub.CompletedAt)
}

func TestReconcileLeavesFreshRunningSubmissionAlone(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.CreateRuntime(&models.Runtime{ID: "py", Name: "py", TimeoutSeconds: 5, BuildStatus: models.BuildReady, Enabled: true}))
	require.NoError(t, st.CreateSubmission(&models.Submission{JobID: "fresh", Language: "py", Status: models.StatusRunning, CreatedAt: time.Now().UTC()}))

	w := New(st, nil, nil)
	w.Reconcile(context.Background())

	sub, err := st.GetSubmission("fresh")
	require.NoError(t, err)
	require.Equal(t, models.StatusRunning, sub.Status)
}

func markSubmissionCreatedAt(st *store.Store, jobID string, at time.Time) error {
	return st.UpdateSubmission(&models.Submission{JobID: jobID, Language: "py", Status: models.StatusRunning, CreatedAt: at})
}
