package services

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicegen-backend/dataset"
	"invoicegen-backend/models"
	"invoicegen-backend/pdf"
)

// fakeRenderer fails for the invoice id "RENDERFAIL" and otherwise emits a
// minimal HTML body.
type fakeRenderer struct{}

func (fakeRenderer) Render(cacheKey, templateStr string, ctx map[string]interface{}) (string, error) {
	if ctx["invoice_id"] == "RENDERFAIL" {
		return "", errors.New("undefined placeholder")
	}
	return fmt.Sprintf("<p>%v</p>", ctx["invoice_id"]), nil
}

// fakeRasterizer writes a fake PDF, failing when the target path belongs to
// an id containing "BAD".
type fakeRasterizer struct{}

func (fakeRasterizer) Rasterize(htmlStr, outputPath string, opts pdf.Options) error {
	if strings.Contains(outputPath, "BAD") {
		return errors.New("engine crashed")
	}
	return os.WriteFile(outputPath, []byte("%PDF fake"), 0o644)
}

// fakeAudit collects appended records in memory; failAll simulates an
// unreachable store.
type fakeAudit struct {
	mu      sync.Mutex
	records []models.GenerationRecord
	failAll bool
}

func (f *fakeAudit) Append(rec *models.GenerationRecord) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return 0, errors.New("history store unreachable")
	}
	rec.ID = uint(len(f.records) + 1)
	f.records = append(f.records, *rec)
	return rec.ID, nil
}

func (f *fakeAudit) byStatus(status string) []models.GenerationRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.GenerationRecord
	for _, r := range f.records {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

func testSource(t *testing.T, ids ...string) dataset.Source {
	t.Helper()
	var records []string
	for _, id := range ids {
		records = append(records, fmt.Sprintf(
			`{"invoice_id":%q,"customer_name":"Cust %s","date":"2024-03-01","items":[{"product_name":"X","quantity":1,"price":10}]}`, id, id))
	}
	src, err := dataset.ParseJSON([]byte("[" + strings.Join(records, ",") + "]"))
	require.NoError(t, err)
	return src
}

func testRequest() Request {
	return Request{
		DataFile:     "data.json",
		TemplateName: "invoice.html",
		Template:     "<p>{{ invoice_id }}</p>",
	}
}

func newTestGenerator(t *testing.T, audit *fakeAudit, workers int) *Generator {
	t.Helper()
	return NewGenerator(audit, fakeRenderer{}, fakeRasterizer{}, t.TempDir(), workers)
}

func TestGenerate_Success(t *testing.T) {
	audit := &fakeAudit{}
	g := newTestGenerator(t, audit, 1)

	path, err := g.Generate("OK-1", testSource(t, "OK-1"), testRequest())
	require.NoError(t, err)
	assert.FileExists(t, path)

	require.Len(t, audit.records, 1)
	rec := audit.records[0]
	assert.Equal(t, models.StatusSuccess, rec.Status)
	assert.Equal(t, "OK-1", rec.InvoiceID)
	assert.Equal(t, "Cust OK-1", rec.CustomerName)
	assert.Equal(t, path, rec.OutputFile)
	assert.Empty(t, rec.ErrorMessage)
}

func TestGenerate_RecordNotFound_NoAuditEntry(t *testing.T) {
	audit := &fakeAudit{}
	g := newTestGenerator(t, audit, 1)

	_, err := g.Generate("MISSING", testSource(t, "OK-1"), testRequest())
	assert.ErrorIs(t, err, ErrRecordNotFound)
	// The pipeline stops before any audit write in single mode.
	assert.Empty(t, audit.records)
}

func TestGenerate_RenderFailureIsAudited(t *testing.T) {
	audit := &fakeAudit{}
	g := newTestGenerator(t, audit, 1)

	_, err := g.Generate("RENDERFAIL", testSource(t, "RENDERFAIL"), testRequest())
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, StageRender, genErr.Stage)

	require.Len(t, audit.records, 1)
	rec := audit.records[0]
	assert.Equal(t, models.StatusError, rec.Status)
	assert.Empty(t, rec.OutputFile)
	assert.Contains(t, rec.ErrorMessage, "render")
}

func TestGenerate_RasterizeFailureIsAudited(t *testing.T) {
	audit := &fakeAudit{}
	g := newTestGenerator(t, audit, 1)

	_, err := g.Generate("BAD-1", testSource(t, "BAD-1"), testRequest())
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, StageRasterize, genErr.Stage)

	require.Len(t, audit.records, 1)
	assert.Equal(t, models.StatusError, audit.records[0].Status)
}

func TestGenerate_AuditFailureIsFatal(t *testing.T) {
	audit := &fakeAudit{failAll: true}
	g := newTestGenerator(t, audit, 1)

	_, err := g.Generate("OK-1", testSource(t, "OK-1"), testRequest())
	require.Error(t, err)
	var genErr *GenerationError
	assert.False(t, errors.As(err, &genErr), "store failures must not be wrapped as per-invoice errors")
}

func TestGenerateBatch_MixedOutcomes(t *testing.T) {
	ids := []string{"OK-1", "RENDERFAIL", "OK-2", "BAD-1", "MISSING"}
	src := testSource(t, "OK-1", "RENDERFAIL", "OK-2", "BAD-1")

	audit := &fakeAudit{}
	g := newTestGenerator(t, audit, 1)

	result, err := g.GenerateBatch(ids, src, testRequest())
	require.NoError(t, err)

	// 2 artifacts, 3 isolated failures, 5 audit entries total.
	assert.Len(t, result.Artifacts, 2)
	assert.Len(t, result.Failures, 3)
	assert.Len(t, audit.records, 5)
	assert.Len(t, audit.byStatus(models.StatusSuccess), 2)
	assert.Len(t, audit.byStatus(models.StatusError), 3)
	assert.False(t, result.FullyFailed())

	// Artifact order follows submission order.
	assert.Contains(t, result.Artifacts[0], "OK-1")
	assert.Contains(t, result.Artifacts[1], "OK-2")

	stages := map[string]Stage{}
	for _, f := range result.Failures {
		stages[f.InvoiceID] = f.Stage
	}
	assert.Equal(t, StageRender, stages["RENDERFAIL"])
	assert.Equal(t, StageRasterize, stages["BAD-1"])
	assert.Equal(t, StageLookup, stages["MISSING"])

	// The archive bundles exactly the successful artifacts.
	require.NotEmpty(t, result.ArchivePath)
	zr, err := zip.OpenReader(result.ArchivePath)
	require.NoError(t, err)
	defer zr.Close()
	assert.Len(t, zr.File, 2)
}

func TestGenerateBatch_FullyFailed_NoArchive(t *testing.T) {
	audit := &fakeAudit{}
	g := newTestGenerator(t, audit, 1)

	result, err := g.GenerateBatch([]string{"MISSING-1", "MISSING-2"}, testSource(t, "OK-1"), testRequest())
	require.NoError(t, err)

	assert.True(t, result.FullyFailed())
	assert.Empty(t, result.ArchivePath)
	assert.Len(t, result.Failures, 2)
	assert.Len(t, audit.byStatus(models.StatusError), 2)
}

func TestGenerateBatch_StoreFailureAborts(t *testing.T) {
	audit := &fakeAudit{failAll: true}
	g := newTestGenerator(t, audit, 1)

	_, err := g.GenerateBatch([]string{"OK-1"}, testSource(t, "OK-1"), testRequest())
	assert.Error(t, err)
}

func TestGenerateBatch_WorkerPool(t *testing.T) {
	var ids []string
	for i := 0; i < 8; i++ {
		ids = append(ids, fmt.Sprintf("OK-%d", i))
	}
	src := testSource(t, ids...)

	audit := &fakeAudit{}
	g := newTestGenerator(t, audit, 4)

	result, err := g.GenerateBatch(ids, src, testRequest())
	require.NoError(t, err)

	assert.Len(t, result.Artifacts, 8)
	assert.Empty(t, result.Failures)
	assert.Len(t, audit.records, 8)

	// Result order still follows submission order even with workers.
	for i, path := range result.Artifacts {
		assert.Contains(t, path, fmt.Sprintf("OK-%d", i))
	}

	zr, err := zip.OpenReader(result.ArchivePath)
	require.NoError(t, err)
	defer zr.Close()
	assert.Len(t, zr.File, 8)
}
