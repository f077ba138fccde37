// controllers/templates.go
package controllers

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"invoicegen-backend/config"
	"invoicegen-backend/render"
	"invoicegen-backend/utils"
)

// TemplateController serves the template directory: listing, reading,
// editing and uploads.
type TemplateController struct {
	Cfg       *config.Config
	Templates *render.TemplateService
}

// UpdateTemplateInput carries edited template source text.
type UpdateTemplateInput struct {
	Content string `json:"content" binding:"required"`
}

// ListTemplates returns the available templates, sorted alphabetically.
func (ctl *TemplateController) ListTemplates(c *gin.Context) {
	files, err := render.ListTemplates(ctl.Cfg.TemplatesDir)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to list templates")
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": files})
}

// GetTemplate returns a template's source text.
func (ctl *TemplateController) GetTemplate(c *gin.Context) {
	name := utils.SanitizeFilename(c.Param("name"))
	content, err := render.ReadTemplate(ctl.Cfg.TemplatesDir, name)
	if err != nil {
		if os.IsNotExist(err) {
			utils.RespondWithError(c, http.StatusNotFound, "Template not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to read template")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "content": content})
}

// UpdateTemplate replaces a template's source text. The new content must
// parse; a cached compiled template is invalidated on success.
func (ctl *TemplateController) UpdateTemplate(c *gin.Context) {
	name := utils.SanitizeFilename(c.Param("name"))
	if !utils.HasAllowedExtension(name, ".html") {
		utils.RespondWithError(c, http.StatusBadRequest, "Unsupported file type")
		return
	}

	var input UpdateTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if err := ctl.Templates.Parse(input.Content); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Template does not parse: "+err.Error())
		return
	}
	if err := render.SaveTemplate(ctl.Cfg.TemplatesDir, name, input.Content); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to save template")
		return
	}
	ctl.Templates.ClearCacheKey(name)
	c.JSON(http.StatusOK, gin.H{"name": name})
}

// UploadTemplate stores a new .html template. Like UpdateTemplate the content
// must parse, and a compiled version cached under the same name is dropped so
// the next generation picks up the new markup.
func (ctl *TemplateController) UploadTemplate(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Missing file field")
		return
	}
	if file.Size > ctl.Cfg.MaxUploadBytes() {
		utils.RespondWithError(c, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File too large (max %d MB)", ctl.Cfg.MaxUploadMB))
		return
	}
	name := utils.SanitizeFilename(file.Filename)
	if !utils.HasAllowedExtension(name, ".html") {
		utils.RespondWithError(c, http.StatusBadRequest, "Unsupported file type")
		return
	}

	src, err := file.Open()
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to read upload")
		return
	}
	defer src.Close()
	content, err := io.ReadAll(src)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to read upload")
		return
	}

	if err := ctl.Templates.Parse(string(content)); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Template does not parse: "+err.Error())
		return
	}
	if err := render.SaveTemplate(ctl.Cfg.TemplatesDir, name, string(content)); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to save template")
		return
	}
	ctl.Templates.ClearCacheKey(name)
	c.JSON(http.StatusCreated, gin.H{"file": name})
}
