// controllers/history.go
package controllers

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"invoicegen-backend/history"
	"invoicegen-backend/models"
	"invoicegen-backend/utils"
)

// HistoryController serves the generation audit log.
type HistoryController struct {
	Store *history.Store
}

// GetHistory returns audit rows, newest first, narrowed by the optional
// date_from/date_to/invoice_id/template_name filters.
func (ctl *HistoryController) GetHistory(c *gin.Context) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	recs, err := ctl.Store.Query(limit, history.Filters{
		DateFrom:     c.Query("date_from"),
		DateTo:       c.Query("date_to"),
		InvoiceID:    c.Query("invoice_id"),
		TemplateName: c.Query("template_name"),
	})
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to query history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": recs})
}

// GetStats returns total / today / last-7-days generation counts.
func (ctl *HistoryController) GetStats(c *gin.Context) {
	stats, err := ctl.Store.Stats()
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to compute statistics")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// DownloadRecordArtifact re-downloads the artifact referenced by an audit
// row, as long as the file still exists on disk.
func (ctl *HistoryController) DownloadRecordArtifact(c *gin.Context) {
	rec, ok := ctl.lookup(c)
	if !ok {
		return
	}
	if rec.Status != models.StatusSuccess || rec.OutputFile == "" {
		utils.RespondWithError(c, http.StatusConflict, "Record has no artifact")
		return
	}
	if _, err := os.Stat(rec.OutputFile); err != nil {
		utils.RespondWithError(c, http.StatusGone, "Artifact no longer exists")
		return
	}
	c.FileAttachment(rec.OutputFile, filepath.Base(rec.OutputFile))
}

// DeleteRecord removes a single audit row.
func (ctl *HistoryController) DeleteRecord(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid record id")
		return
	}
	deleted, err := ctl.Store.Delete(uint(id))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete record")
		return
	}
	if !deleted {
		utils.RespondWithError(c, http.StatusNotFound, "Record not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ClearHistory removes every audit row.
func (ctl *HistoryController) ClearHistory(c *gin.Context) {
	if err := ctl.Store.ClearAll(); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to clear history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

func (ctl *HistoryController) lookup(c *gin.Context) (*models.GenerationRecord, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid record id")
		return nil, false
	}
	rec, found, err := ctl.Store.Get(uint(id))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load record")
		return nil, false
	}
	if !found {
		utils.RespondWithError(c, http.StatusNotFound, "Record not found")
		return nil, false
	}
	return rec, true
}
