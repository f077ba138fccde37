package controllers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicegen-backend/config"
)

// recordingOpener captures paths instead of shelling out to a viewer.
type recordingOpener struct {
	opened []string
}

func (o *recordingOpener) OpenArtifact(path string) error {
	o.opened = append(o.opened, path)
	return nil
}

func TestOpenArtifact_AllowedExtensionsOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{OutputDir: t.TempDir()}
	opener := &recordingOpener{}
	ctl := GenerateController{Cfg: cfg, Opener: opener}
	r := gin.New()
	r.POST("/api/artifacts/:name/open", ctl.OpenArtifact)

	for _, name := range []string{"inv.pdf", "stray.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.OutputDir, name), []byte("x"), 0o644))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/artifacts/inv.pdf/open", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, opener.opened, 1)

	// A stray file in the output directory is never handed to the viewer,
	// even though it exists on disk.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/artifacts/stray.txt/open", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, opener.opened, 1)
}
