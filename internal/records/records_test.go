package records

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirebot-engine/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db.Pool))
	return New(db), db
}

func TestReadinessAdvancesStageByStage(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureUser(ctx, db.Pool, "42"))

	ok, err := svc.UserInRecords(ctx, "42")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.UserInRecords(ctx, "99")
	require.NoError(t, err)
	assert.False(t, ok)

	// fresh record: nothing received yet
	for name, pred := range map[string]func(context.Context, string) (bool, error){
		"description": svc.VacancyDescriptionReceived,
		"criteria":    svc.SourcingCriteriaReceived,
		"selected":    svc.VacancySelected,
		"enough":      svc.EnoughDataForAnalysis,
	} {
		got, err := pred(ctx, "42")
		require.NoError(t, err, name)
		assert.False(t, got, name)
	}

	require.NoError(t, store.SetVacancyDescription(ctx, db.Pool, "42", "Backend engineer, Go"))
	got, err := svc.VacancyDescriptionReceived(ctx, "42")
	require.NoError(t, err)
	assert.True(t, got)
	got, err = svc.EnoughDataForAnalysis(ctx, "42")
	require.NoError(t, err)
	assert.False(t, got)

	require.NoError(t, store.SetSourcingCriteria(ctx, db.Pool, "42", `{"position":"backend engineer"}`))
	require.NoError(t, store.SetSelectedVacancy(ctx, db.Pool, "42", "v-7"))

	got, err = svc.EnoughDataForAnalysis(ctx, "42")
	require.NoError(t, err)
	assert.True(t, got)

	id, err := svc.TargetVacancyID(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "v-7", id)
}

func TestPredicatesAreFalseForUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	got, err := svc.EnoughDataForAnalysis(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, got)

	_, err = svc.TargetVacancyID(ctx, "missing")
	require.Error(t, err)

	_, err = svc.Readiness(ctx, "missing")
	require.Error(t, err)
}

func TestReadinessDigest(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureUser(ctx, db.Pool, "42"))
	require.NoError(t, store.SetVacancyDescription(ctx, db.Pool, "42", "QA lead"))

	r, err := svc.Readiness(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "42", r.ChatID)
	assert.True(t, r.VacancyDescriptionReceived)
	assert.False(t, r.SourcingCriteriaReceived)
	assert.False(t, r.EnoughForAnalysis)

	require.NoError(t, store.SetSourcingCriteria(ctx, db.Pool, "42", `{"position":"qa lead"}`))
	require.NoError(t, store.SetSelectedVacancy(ctx, db.Pool, "42", "v-3"))

	r, err = svc.Readiness(ctx, "42")
	require.NoError(t, err)
	assert.True(t, r.EnoughForAnalysis)
	assert.Equal(t, "v-3", r.TargetVacancyID)
}
