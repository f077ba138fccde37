// services/sweeper.go
package services

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"invoicegen-backend/utils"
)

// RetentionSweeper deletes generated artifacts older than the retention
// window. History rows are kept; only the files on disk are reclaimed.
type RetentionSweeper struct {
	outputDir string
	days      int
	cron      *cron.Cron
}

func NewRetentionSweeper(outputDir string, days int) *RetentionSweeper {
	return &RetentionSweeper{outputDir: outputDir, days: days, cron: cron.New()}
}

// Start schedules a daily sweep at 03:00. A non-positive retention disables
// the sweeper entirely.
func (s *RetentionSweeper) Start() {
	if s.days <= 0 {
		return
	}
	s.cron.AddFunc("0 3 * * *", s.Sweep)
	s.cron.Start()
	log.Printf("Retention sweeper started (%d days)", s.days)
}

func (s *RetentionSweeper) Stop() {
	s.cron.Stop()
}

// Sweep removes .pdf and .zip artifacts older than the retention window.
func (s *RetentionSweeper) Sweep() {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		log.Printf("Retention sweep failed to list %s: %v", s.outputDir, err)
		return
	}

	now := time.Now()
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".pdf" && ext != ".zip" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if utils.DaysBetween(info.ModTime(), now) <= s.days {
			continue
		}
		if err := os.Remove(filepath.Join(s.outputDir, e.Name())); err != nil {
			log.Printf("Retention sweep could not remove %s: %v", e.Name(), err)
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Printf("Retention sweep removed %d artifacts older than %d days", removed, s.days)
	}
}
