// controllers/datafiles.go
package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"invoicegen-backend/config"
	"invoicegen-backend/dataset"
	"invoicegen-backend/utils"
)

// DataFileController serves the dataset directory: listing, preview, invoice
// id lookup and uploads.
type DataFileController struct {
	Cfg *config.Config
}

// ListDataFiles returns the available data files, sorted alphabetically.
func (ctl *DataFileController) ListDataFiles(c *gin.Context) {
	files, err := dataset.ListDataFiles(ctl.Cfg.DataDir)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to list data files")
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// PreviewDataFile loads and validates a data file and returns the first
// normalized records for display.
func (ctl *DataFileController) PreviewDataFile(c *gin.Context) {
	src, ok := ctl.loadValidated(c)
	if !ok {
		return
	}

	invoices := src.Invoices()
	if len(invoices) > 10 {
		invoices = invoices[:10]
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(src.InvoiceIDs()),
		"preview": invoices,
	})
}

// ListInvoiceIDs returns the addressable invoice ids of a data file,
// optionally narrowed by a case-insensitive substring search.
func (ctl *DataFileController) ListInvoiceIDs(c *gin.Context) {
	src, ok := ctl.loadValidated(c)
	if !ok {
		return
	}
	ids := dataset.FilterIDs(src.InvoiceIDs(), c.Query("search"))
	c.JSON(http.StatusOK, gin.H{"invoice_ids": ids})
}

// UploadDataFile stores a new .csv or .json dataset.
func (ctl *DataFileController) UploadDataFile(c *gin.Context) {
	saveUpload(c, ctl.Cfg, ctl.Cfg.DataDir, ".csv", ".json")
}

func (ctl *DataFileController) loadValidated(c *gin.Context) (dataset.Source, bool) {
	name := utils.SanitizeFilename(c.Param("name"))
	src, err := dataset.Load(ctl.Cfg.DataDir, name)
	if err != nil {
		if os.IsNotExist(err) {
			utils.RespondWithError(c, http.StatusNotFound, "Data file not found")
		} else if errors.Is(err, dataset.ErrUnrecognizedShape) || errors.Is(err, dataset.ErrEmptyDataset) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid data file: "+err.Error())
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load data file")
		}
		return nil, false
	}
	if err := src.Validate(); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid data structure: "+err.Error())
		return nil, false
	}
	return src, true
}

// saveUpload enforces the boundary constraints (size cap, extension
// allow-list) and writes the file atomically via a temp name.
func saveUpload(c *gin.Context, cfg *config.Config, dir string, exts ...string) {
	file, err := c.FormFile("file")
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Missing file field")
		return
	}
	if file.Size > cfg.MaxUploadBytes() {
		utils.RespondWithError(c, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File too large (max %d MB)", cfg.MaxUploadMB))
		return
	}
	name := utils.SanitizeFilename(file.Filename)
	if !utils.HasAllowedExtension(name, exts...) {
		utils.RespondWithError(c, http.StatusBadRequest, "Unsupported file type")
		return
	}

	tmp := filepath.Join(dir, "."+uuid.NewString()+".tmp")
	if err := c.SaveUploadedFile(file, tmp); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to store file")
		return
	}
	if err := os.Rename(tmp, filepath.Join(dir, name)); err != nil {
		os.Remove(tmp)
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to store file")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"file": name})
}
