package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"invoicegen-backend/config"
	"invoicegen-backend/history"
	"invoicegen-backend/pdf"
	"invoicegen-backend/render"
	"invoicegen-backend/routes"
	"invoicegen-backend/services"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
}

func main() {
	cfg := config.Load()
	if err := cfg.EnsureDirs(); err != nil {
		log.Fatalf("Failed to create working directories: %v", err)
	}

	store, err := history.Open(cfg.DBURL, cfg.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to open history store: %v", err)
	}
	defer store.Close()

	templates := render.NewTemplateService()
	generator := services.NewGenerator(store, templates, pdf.NewHTMLRasterizer(cfg.PDFFontFile), cfg.OutputDir, cfg.PDFWorkers)

	sweeper := services.NewRetentionSweeper(cfg.OutputDir, cfg.RetentionDays)
	sweeper.Start()
	defer sweeper.Stop()

	r := routes.SetupRouter(cfg, store, generator, templates, pdf.NewOSOpener())
	printRoutes(r)
	r.Run(":" + cfg.Port)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
