package ruledb_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/basketlens/internal/apriori"
	"github.com/KaramelBytes/basketlens/internal/ruledb"
	"github.com/KaramelBytes/basketlens/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportAndReadBack(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rules.db")
	db, err := ruledb.Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	tbl := rules.Table{
		{BoughtItem: "pasta", ExpectedItem: "shrimp", Support: 0.005, Confidence: 0.32, Lift: 4.5},
		{BoughtItem: "light cream", ExpectedItem: "chicken", Support: 0.0045, Confidence: 0.29, Lift: 4.84},
		{BoughtItem: "pasta", ExpectedItem: "shrimp", Support: 0.004, Confidence: 0.40, Lift: 3.2},
	}
	th := apriori.DefaultThresholds()
	run, err := db.Export(ctx, "store_data.csv", 7501, th, tbl)
	require.NoError(t, err)
	assert.Equal(t, 3, run.RuleCount)

	runs, err := db.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, "store_data.csv", runs[0].Source)
	assert.Equal(t, 7501, runs[0].Transactions)
	assert.Equal(t, th, runs[0].Thresholds)
	assert.True(t, run.CreatedAt.Equal(runs[0].CreatedAt))

	got, err := db.Rules(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, tbl, got)
}

func TestEmptyTableAndMissingRun(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rules.db")
	db, err := ruledb.Open(ctx, path)
	require.NoError(t, err)

	run, err := db.Export(ctx, "empty.csv", 3, apriori.DefaultThresholds(), nil)
	require.NoError(t, err)
	got, err := db.Rules(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = db.Rules(ctx, "nope")
	assert.ErrorIs(t, err, ruledb.ErrRunNotFound)
	require.NoError(t, db.Close())

	// reopening keeps earlier runs
	db, err = ruledb.Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	runs, err := db.Runs(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
