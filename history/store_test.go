package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicegen-backend/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("", filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func appendRecord(t *testing.T, s *Store, invoiceID, template, status string) uint {
	t.Helper()
	id, err := s.Append(&models.GenerationRecord{
		InvoiceID:    invoiceID,
		CustomerName: "Test",
		DataFile:     "data.csv",
		TemplateName: template,
		OutputFile:   "output/" + invoiceID + ".pdf",
		Status:       status,
	})
	require.NoError(t, err)
	return id
}

func TestAppendAssignsIDAndTimestamp(t *testing.T) {
	store := openTestStore(t)

	first := appendRecord(t, store, "INV-1", "t.html", models.StatusSuccess)
	second := appendRecord(t, store, "INV-2", "t.html", models.StatusSuccess)
	assert.Greater(t, second, first)

	rec, found, err := store.Get(first)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "INV-1", rec.InvoiceID)
	assert.False(t, rec.Timestamp.IsZero())
}

func TestQueryOrderAndLimit(t *testing.T) {
	store := openTestStore(t)
	for _, id := range []string{"INV-1", "INV-2", "INV-3"} {
		appendRecord(t, store, id, "t.html", models.StatusSuccess)
	}

	recs, err := store.Query(0, Filters{})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	// Newest first.
	assert.Equal(t, "INV-3", recs[0].InvoiceID)
	assert.Equal(t, "INV-1", recs[2].InvoiceID)

	recs, err = store.Query(2, Filters{})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestQueryFiltersAreConjunctive(t *testing.T) {
	store := openTestStore(t)
	appendRecord(t, store, "INV-1", "alpha.html", models.StatusSuccess)
	appendRecord(t, store, "INV-2", "alpha.html", models.StatusError)
	appendRecord(t, store, "ORD-9", "beta.html", models.StatusSuccess)

	recs, err := store.Query(100, Filters{InvoiceID: "INV"})
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	recs, err = store.Query(100, Filters{InvoiceID: "INV", TemplateName: "beta"})
	require.NoError(t, err)
	assert.Empty(t, recs)

	recs, err = store.Query(100, Filters{TemplateName: "beta"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "ORD-9", recs[0].InvoiceID)
}

func TestStatsAndDelete(t *testing.T) {
	store := openTestStore(t)

	before, err := store.Stats()
	require.NoError(t, err)
	require.Zero(t, before.Total)

	var last uint
	for i := 0; i < 3; i++ {
		last = appendRecord(t, store, "INV-1", "t.html", models.StatusSuccess)
	}

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(3), stats.Today)
	assert.Equal(t, int64(3), stats.Last7Days)

	deleted, err := store.Delete(last)
	require.NoError(t, err)
	assert.True(t, deleted)

	stats, err = store.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)

	recs, err := store.Query(100, Filters{})
	require.NoError(t, err)
	for _, rec := range recs {
		assert.NotEqual(t, last, rec.ID)
	}

	// Deleting again reports no row.
	deleted, err = store.Delete(last)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestClearAll(t *testing.T) {
	store := openTestStore(t)
	appendRecord(t, store, "INV-1", "t.html", models.StatusSuccess)
	appendRecord(t, store, "INV-2", "t.html", models.StatusError)

	require.NoError(t, store.ClearAll())

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}
