package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/parcel-risk/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

var sampleRisk = model.RiskScoreResult{
	Score:        100,
	SeverityTier: 5,
	Rationale:    "위반 건축물",
	Factors: model.BuildingFacts{
		IsViolation:      true,
		BuildingAgeYears: 35,
		PrimaryUse:       "생활형숙박시설",
	},
}

var samplePrice = model.PriceScoreResult{
	Score:     40,
	Rationale: "동 평균 대비 약 20% 높은 가격",
	Metrics: model.PriceMetrics{
		PricePerPyeong:            3960,
		AreaAveragePricePerPyeong: 3300,
		DealType:                  "SALE",
	},
}

func TestSQLite_SaveRisk_Commit(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	tx, err := st.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SaveRisk(ctx, "서울시 강남구 역삼동 777-0", sampleRisk))
	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, tx.Rollback(ctx), "rollback after commit is a no-op")

	got, err := st.ListRisk(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.Equal(t, "서울시 강남구 역삼동 777-0", got[0].Address)
	assert.Equal(t, 100, got[0].RiskScore)
	assert.Equal(t, 5, got[0].SeverityTier)
	assert.Equal(t, sampleRisk.Factors, got[0].Factors)
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestSQLite_Rollback_DiscardsWrites(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	tx, err := st.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SaveRisk(ctx, "a", sampleRisk))
	require.NoError(t, tx.SavePrice(ctx, "a", samplePrice))
	require.NoError(t, tx.Rollback(ctx))

	risk, err := st.ListRisk(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, risk)

	price, err := st.ListPrice(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, price)
}

func TestSQLite_CommitTwice(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	tx, err := st.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	assert.Error(t, tx.Commit(ctx))
}

func TestSQLite_SavePrice(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	tx, err := st.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SavePrice(ctx, "b", samplePrice))
	require.NoError(t, tx.Commit(ctx))

	got, err := st.ListPrice(ctx, ListFilter{Address: "b"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "SALE", got[0].DealType)
	assert.Equal(t, 40, got[0].PriceScore)
	assert.Equal(t, samplePrice.Rationale, got[0].Rationale)
	assert.InDelta(t, 3960.0, got[0].Metrics.PricePerPyeong, 1e-9)
	assert.InDelta(t, 3300.0, got[0].Metrics.AreaAveragePricePerPyeong, 1e-9)
}

func TestSQLite_ListFilter(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	tx, err := st.Begin(ctx)
	require.NoError(t, err)
	for _, addr := range []string{"a", "a", "a", "b"} {
		require.NoError(t, tx.SaveRisk(ctx, addr, sampleRisk))
	}
	require.NoError(t, tx.Commit(ctx))

	all, err := st.ListRisk(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	onlyA, err := st.ListRisk(ctx, ListFilter{Address: "a"})
	require.NoError(t, err)
	assert.Len(t, onlyA, 3)

	page, err := st.ListRisk(ctx, ListFilter{Address: "a", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := st.ListRisk(ctx, ListFilter{Address: "a", Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestSQLite_Ping(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Ping(context.Background()))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	st, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "open.db"), nil)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, st.Close())

	_, err = Open(ctx, "mysql", "dsn", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestListFilter_Limit(t *testing.T) {
	assert.Equal(t, defaultListLimit, ListFilter{}.limit())
	assert.Equal(t, 7, ListFilter{Limit: 7}.limit())
	assert.Equal(t, maxListLimit, ListFilter{Limit: 10_000}.limit())
}
