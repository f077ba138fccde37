package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Config collects the environment-driven settings. Values come from the
// process environment, optionally seeded from a .env file at startup.
type Config struct {
	Port          string
	DBURL         string // Postgres DSN; empty selects the embedded SQLite store
	SQLitePath    string
	DataDir       string
	TemplatesDir  string
	OutputDir     string
	PDFFontFile   string // TTF to embed; empty keeps the built-in Helvetica
	PDFWorkers    int    // batch concurrency bound; 1 keeps batches sequential
	RetentionDays int    // artifact retention; 0 disables the sweeper
	MaxUploadMB   int64
}

func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		DBURL:         os.Getenv("DB_URL"),
		SQLitePath:    getEnv("HISTORY_DB", "history.db"),
		DataDir:       getEnv("DATA_DIR", "data"),
		TemplatesDir:  getEnv("TEMPLATES_DIR", "templates"),
		OutputDir:     getEnv("OUTPUT_DIR", "output"),
		PDFFontFile:   os.Getenv("PDF_FONT"),
		PDFWorkers:    getEnvInt("PDF_WORKERS", 1),
		RetentionDays: getEnvInt("RETENTION_DAYS", 0),
		MaxUploadMB:   int64(getEnvInt("MAX_UPLOAD_MB", 50)),
	}
}

// MaxUploadBytes is the upload size cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// EnsureDirs creates the data, templates and output directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.TemplatesDir, c.OutputDir} {
		if err := os.MkdirAll(filepath.Clean(dir), 0o755); err != nil {
			return err
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
