// services/generator.go
package services

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"invoicegen-backend/dataset"
	"invoicegen-backend/models"
	"invoicegen-backend/pdf"
)

// ErrRecordNotFound means the requested invoice id does not exist in the
// loaded dataset.
var ErrRecordNotFound = errors.New("invoice record not found")

// Stage identifies where in the pipeline a generation attempt failed.
type Stage string

const (
	StageLookup    Stage = "lookup"
	StageRender    Stage = "render"
	StageRasterize Stage = "rasterize"
)

// GenerationError is a per-invoice failure. Pipeline-level failures (audit
// store, filesystem) are returned as plain errors instead, since those must
// abort the operation.
type GenerationError struct {
	InvoiceID string
	Stage     Stage
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("invoice %s: %s failed: %v", e.InvoiceID, e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Renderer renders template source text against an invoice context.
// *render.TemplateService satisfies it.
type Renderer interface {
	Render(cacheKey, templateStr string, ctx map[string]interface{}) (string, error)
}

// AuditLog records the outcome of every generation attempt. *history.Store
// satisfies it.
type AuditLog interface {
	Append(rec *models.GenerationRecord) (uint, error)
}

// Request carries the per-run inputs shared by every invoice in a batch.
type Request struct {
	DataFile     string // dataset file name, recorded in the audit trail
	TemplateName string
	Template     string // template source text
	Options      pdf.Options
}

// Generator orchestrates lookup, render, rasterize and audit for single and
// batch generation.
type Generator struct {
	audit      AuditLog
	renderer   Renderer
	rasterizer pdf.Rasterizer
	outputDir  string
	workers    int
	now        func() time.Time
}

// NewGenerator wires a generation pipeline. workers bounds batch concurrency;
// values below 2 keep batches strictly sequential.
func NewGenerator(audit AuditLog, renderer Renderer, rasterizer pdf.Rasterizer, outputDir string, workers int) *Generator {
	if workers < 1 {
		workers = 1
	}
	return &Generator{
		audit:      audit,
		renderer:   renderer,
		rasterizer: rasterizer,
		outputDir:  outputDir,
		workers:    workers,
		now:        time.Now,
	}
}

// Generate produces one PDF for the given invoice id and returns the artifact
// path. A missing id fails with ErrRecordNotFound before any rendering or
// audit write; render and rasterize failures are recorded as error audit
// entries. An audit write failure is fatal and propagates.
func (g *Generator) Generate(invoiceID string, src dataset.Source, req Request) (string, error) {
	inv, ok := src.Invoice(invoiceID)
	if !ok {
		return "", &GenerationError{InvoiceID: invoiceID, Stage: StageLookup, Err: ErrRecordNotFound}
	}
	return g.generateOne(inv, req)
}

// BatchFailure describes one failed id within a batch.
type BatchFailure struct {
	InvoiceID string `json:"invoice_id"`
	Stage     Stage  `json:"stage"`
	Error     string `json:"error"`
}

// BatchResult summarizes one batch run. ArchivePath is empty when no artifact
// was produced, i.e. the batch fully failed.
type BatchResult struct {
	BatchID     string         `json:"batch_id"`
	Artifacts   []string       `json:"artifacts"`
	Failures    []BatchFailure `json:"failures"`
	ArchivePath string         `json:"archive_path,omitempty"`
}

// FullyFailed reports whether the batch produced no artifact at all.
func (r *BatchResult) FullyFailed() bool { return len(r.Artifacts) == 0 }

// GenerateBatch processes ids in the given order. Each id's failure is
// isolated: a missing record or a render/rasterize error is recorded (audit
// entry plus failure item) and the batch moves on. Only audit-store or
// filesystem errors abort the run. Successful artifacts are bundled into one
// zip archive after all ids finish; with zero successes no archive is made.
func (g *Generator) GenerateBatch(ids []string, src dataset.Source, req Request) (*BatchResult, error) {
	result := &BatchResult{BatchID: uuid.NewString()}
	log.Printf("[batch %s] generating %d invoices from %s with %s", result.BatchID, len(ids), req.DataFile, req.TemplateName)

	paths := make([]string, len(ids))
	errs := make([]error, len(ids))

	if g.workers > 1 {
		// Bounded pool. Audit writes land in completion order; the result
		// slices keep submission order, and the archive waits for the join.
		sem := make(chan struct{}, g.workers)
		var wg sync.WaitGroup
		for i, id := range ids {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int, id string) {
				defer wg.Done()
				defer func() { <-sem }()
				paths[i], errs[i] = g.generateForBatch(id, src, req)
			}(i, id)
		}
		wg.Wait()
	} else {
		for i, id := range ids {
			paths[i], errs[i] = g.generateForBatch(id, src, req)
		}
	}

	for i, id := range ids {
		if errs[i] == nil {
			result.Artifacts = append(result.Artifacts, paths[i])
			continue
		}
		var genErr *GenerationError
		if !errors.As(errs[i], &genErr) {
			// Store or filesystem failure: losing the audit trail defeats
			// the history feature, so the whole operation fails.
			return nil, errs[i]
		}
		result.Failures = append(result.Failures, BatchFailure{
			InvoiceID: id,
			Stage:     genErr.Stage,
			Error:     genErr.Err.Error(),
		})
	}

	if len(result.Artifacts) > 0 {
		archive := filepath.Join(g.outputDir, fmt.Sprintf("batch_%s.zip", g.now().Format("20060102_150405")))
		if err := pdf.CreateZipArchive(result.Artifacts, archive); err != nil {
			return nil, err
		}
		result.ArchivePath = archive
	}
	log.Printf("[batch %s] done: %d generated, %d failed", result.BatchID, len(result.Artifacts), len(result.Failures))
	return result, nil
}

// generateForBatch differs from Generate in one way: a missing id still gets
// an error audit entry, so a batch of N attempts always yields N entries.
func (g *Generator) generateForBatch(id string, src dataset.Source, req Request) (string, error) {
	inv, ok := src.Invoice(id)
	if !ok {
		genErr := &GenerationError{InvoiceID: id, Stage: StageLookup, Err: ErrRecordNotFound}
		if err := g.appendError(id, "", req, genErr); err != nil {
			return "", err
		}
		return "", genErr
	}
	return g.generateOne(inv, req)
}

func (g *Generator) generateOne(inv *models.CanonicalInvoice, req Request) (string, error) {
	htmlStr, err := g.renderer.Render(req.TemplateName, req.Template, inv.TemplateContext())
	if err != nil {
		genErr := &GenerationError{InvoiceID: inv.InvoiceID, Stage: StageRender, Err: err}
		if aerr := g.appendError(inv.InvoiceID, inv.CustomerName, req, genErr); aerr != nil {
			return "", aerr
		}
		return "", genErr
	}

	name := fmt.Sprintf("%s_%s.pdf", inv.InvoiceID, g.now().Format("20060102_150405"))
	outputPath := filepath.Join(g.outputDir, name)
	if err := g.rasterizer.Rasterize(htmlStr, outputPath, req.Options); err != nil {
		genErr := &GenerationError{InvoiceID: inv.InvoiceID, Stage: StageRasterize, Err: err}
		if aerr := g.appendError(inv.InvoiceID, inv.CustomerName, req, genErr); aerr != nil {
			return "", aerr
		}
		return "", genErr
	}

	if _, err := g.audit.Append(&models.GenerationRecord{
		InvoiceID:    inv.InvoiceID,
		CustomerName: inv.CustomerName,
		DataFile:     req.DataFile,
		TemplateName: req.TemplateName,
		OutputFile:   outputPath,
		Status:       models.StatusSuccess,
	}); err != nil {
		return "", err
	}
	return outputPath, nil
}

func (g *Generator) appendError(invoiceID, customerName string, req Request, genErr *GenerationError) error {
	_, err := g.audit.Append(&models.GenerationRecord{
		InvoiceID:    invoiceID,
		CustomerName: customerName,
		DataFile:     req.DataFile,
		TemplateName: req.TemplateName,
		Status:       models.StatusError,
		ErrorMessage: fmt.Sprintf("%s: %v", genErr.Stage, genErr.Err),
	})
	return err
}
