package routes

import (
	"invoicegen-backend/config"
	"invoicegen-backend/controllers"
	"invoicegen-backend/history"
	"invoicegen-backend/pdf"
	"invoicegen-backend/render"
	"invoicegen-backend/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(cfg *config.Config, store *history.Store, generator *services.Generator, templates *render.TemplateService, opener pdf.ArtifactOpener) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	r.MaxMultipartMemory = cfg.MaxUploadBytes()

	dataFiles := controllers.DataFileController{Cfg: cfg}
	templateCtl := controllers.TemplateController{Cfg: cfg, Templates: templates}
	generate := controllers.GenerateController{Cfg: cfg, Generator: generator, Opener: opener}
	historyCtl := controllers.HistoryController{Store: store}

	api := r.Group("/api")
	{
		// Data file routes
		data := api.Group("/data-files")
		{
			data.GET("", dataFiles.ListDataFiles)
			data.POST("", dataFiles.UploadDataFile)
			data.GET("/:name/preview", dataFiles.PreviewDataFile)
			data.GET("/:name/invoices", dataFiles.ListInvoiceIDs)
		}

		// Template routes
		tpls := api.Group("/templates")
		{
			tpls.GET("", templateCtl.ListTemplates)
			tpls.POST("", templateCtl.UploadTemplate)
			tpls.GET("/:name", templateCtl.GetTemplate)
			tpls.PUT("/:name", templateCtl.UpdateTemplate)
		}

		// Generation routes
		api.POST("/generate", generate.Generate)
		api.POST("/generate/batch", generate.GenerateBatch)
		api.GET("/artifacts/:name/download", generate.DownloadArtifact)
		api.POST("/artifacts/:name/open", generate.OpenArtifact)

		// History routes
		hist := api.Group("/history")
		{
			hist.GET("", historyCtl.GetHistory)
			hist.GET("/stats", historyCtl.GetStats)
			hist.GET("/:id/download", historyCtl.DownloadRecordArtifact)
			hist.DELETE("/:id", historyCtl.DeleteRecord)
			hist.DELETE("", historyCtl.ClearHistory)
		}
	}

	return r
}
