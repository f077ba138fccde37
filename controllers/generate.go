// controllers/generate.go
package controllers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"invoicegen-backend/config"
	"invoicegen-backend/dataset"
	"invoicegen-backend/pdf"
	"invoicegen-backend/render"
	"invoicegen-backend/services"
	"invoicegen-backend/utils"
)

// GenerateController drives the generation pipeline and serves the produced
// artifacts.
type GenerateController struct {
	Cfg       *config.Config
	Generator *services.Generator
	Opener    pdf.ArtifactOpener
}

// GenerateInput selects one invoice of one data file and a template.
type GenerateInput struct {
	DataFile  string      `json:"data_file" binding:"required"`
	Template  string      `json:"template" binding:"required"`
	InvoiceID string      `json:"invoice_id" binding:"required"`
	Options   pdf.Options `json:"options"`
}

// GenerateBatchInput selects several invoice ids, processed in order.
type GenerateBatchInput struct {
	DataFile   string      `json:"data_file" binding:"required"`
	Template   string      `json:"template" binding:"required"`
	InvoiceIDs []string    `json:"invoice_ids" binding:"required,min=1"`
	Options    pdf.Options `json:"options"`
}

// Generate produces a single PDF.
func (ctl *GenerateController) Generate(c *gin.Context) {
	var input GenerateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	src, req, ok := ctl.prepare(c, input.DataFile, input.Template, input.Options)
	if !ok {
		return
	}

	outputPath, err := ctl.Generator.Generate(input.InvoiceID, src, req)
	if err != nil {
		var genErr *services.GenerationError
		switch {
		case errors.Is(err, services.ErrRecordNotFound):
			utils.RespondWithError(c, http.StatusNotFound, "Invoice not found: "+input.InvoiceID)
		case errors.As(err, &genErr):
			utils.RespondWithError(c, http.StatusUnprocessableEntity, genErr.Error())
		default:
			utils.RespondWithError(c, http.StatusInternalServerError, "Generation failed: "+err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"output_file": filepath.Base(outputPath),
		"download":    "/api/artifacts/" + filepath.Base(outputPath) + "/download",
	})
}

// GenerateBatch produces PDFs for every selected id and bundles successes
// into a zip archive.
func (ctl *GenerateController) GenerateBatch(c *gin.Context) {
	var input GenerateBatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	src, req, ok := ctl.prepare(c, input.DataFile, input.Template, input.Options)
	if !ok {
		return
	}

	result, err := ctl.Generator.GenerateBatch(input.InvoiceIDs, src, req)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Batch generation failed: "+err.Error())
		return
	}

	resp := gin.H{
		"batch_id":  result.BatchID,
		"generated": len(result.Artifacts),
		"failures":  result.Failures,
	}
	if result.FullyFailed() {
		resp["fully_failed"] = true
	} else {
		resp["archive"] = filepath.Base(result.ArchivePath)
		resp["download"] = "/api/artifacts/" + filepath.Base(result.ArchivePath) + "/download"
	}
	c.JSON(http.StatusOK, resp)
}

// DownloadArtifact streams a generated PDF or zip from the output directory.
func (ctl *GenerateController) DownloadArtifact(c *gin.Context) {
	name := utils.SanitizeFilename(c.Param("name"))
	if !utils.HasAllowedExtension(name, ".pdf", ".zip") {
		utils.RespondWithError(c, http.StatusBadRequest, "Unsupported artifact type")
		return
	}
	path := filepath.Join(ctl.Cfg.OutputDir, name)
	if _, err := os.Stat(path); err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Artifact not found")
		return
	}
	c.FileAttachment(path, name)
}

// OpenArtifact opens a generated artifact in the host's document viewer. Only
// pipeline output types are handed to the viewer, matching DownloadArtifact.
func (ctl *GenerateController) OpenArtifact(c *gin.Context) {
	name := utils.SanitizeFilename(c.Param("name"))
	if !utils.HasAllowedExtension(name, ".pdf", ".zip") {
		utils.RespondWithError(c, http.StatusBadRequest, "Unsupported artifact type")
		return
	}
	path := filepath.Join(ctl.Cfg.OutputDir, name)
	if _, err := os.Stat(path); err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Artifact not found")
		return
	}
	if err := ctl.Opener.OpenArtifact(path); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to open artifact")
		return
	}
	c.JSON(http.StatusOK, gin.H{"opened": name})
}

// prepare loads and validates the dataset and reads the template, mapping
// structural problems to 4xx before the pipeline runs.
func (ctl *GenerateController) prepare(c *gin.Context, dataFile, templateName string, opts pdf.Options) (dataset.Source, services.Request, bool) {
	var req services.Request

	dataFile = utils.SanitizeFilename(dataFile)
	src, err := dataset.Load(ctl.Cfg.DataDir, dataFile)
	if err != nil {
		if os.IsNotExist(err) {
			utils.RespondWithError(c, http.StatusNotFound, "Data file not found")
		} else {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid data file: "+err.Error())
		}
		return nil, req, false
	}
	if err := src.Validate(); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid data structure: "+err.Error())
		return nil, req, false
	}

	templateName = utils.SanitizeFilename(templateName)
	content, err := render.ReadTemplate(ctl.Cfg.TemplatesDir, templateName)
	if err != nil {
		if os.IsNotExist(err) {
			utils.RespondWithError(c, http.StatusNotFound, "Template not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to read template")
		}
		return nil, req, false
	}

	req = services.Request{
		DataFile:     dataFile,
		TemplateName: templateName,
		Template:     content,
		Options:      opts,
	}
	return src, req, true
}
