// Package history persists the append-only generation audit log.
package history

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"invoicegen-backend/models"
	"invoicegen-backend/utils"
)

// Store wraps the history database. Appends are serialized through a single
// mutex so auto-increment id assignment stays race-free even when batch
// workers run concurrently.
type Store struct {
	db *gorm.DB
	mu sync.Mutex
}

// Open connects to the history database and migrates the generation_history
// table. A non-empty dbURL selects Postgres; otherwise an embedded SQLite
// database at sqlitePath is used.
func Open(dbURL, sqlitePath string) (*Store, error) {
	var dial gorm.Dialector
	if dbURL != "" {
		dial = postgres.Open(dbURL)
	} else {
		dial = sqlite.Open(sqlitePath)
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting history database: %w", err)
	}
	if err := db.AutoMigrate(&models.GenerationRecord{}); err != nil {
		return nil, fmt.Errorf("migrating generation_history: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Append inserts one audit row and returns its id. The store assigns both the
// id and the timestamp; whatever the caller set there is discarded.
func (s *Store) Append(rec *models.GenerationRecord) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = 0
	rec.Timestamp = time.Now()
	if err := s.db.Create(rec).Error; err != nil {
		return 0, fmt.Errorf("appending history record: %w", err)
	}
	return rec.ID, nil
}

// Filters narrow a history query. All set filters are combined with AND.
// Substring filters use the database's LIKE semantics: case-insensitive for
// ASCII under SQLite, case-sensitive under default Postgres collation.
type Filters struct {
	DateFrom     string // YYYY-MM-DD, inclusive
	DateTo       string // YYYY-MM-DD, inclusive
	InvoiceID    string
	TemplateName string
}

// Query returns audit rows sorted by timestamp descending. A non-positive
// limit falls back to 100.
func (s *Store) Query(limit int, f Filters) ([]models.GenerationRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	q := s.db.Model(&models.GenerationRecord{})
	if t, err := time.ParseInLocation("2006-01-02", f.DateFrom, time.Local); err == nil {
		q = q.Where("timestamp >= ?", t)
	}
	if t, err := time.ParseInLocation("2006-01-02", f.DateTo, time.Local); err == nil {
		q = q.Where("timestamp < ?", t.AddDate(0, 0, 1))
	}
	if f.InvoiceID != "" {
		q = q.Where("invoice_id LIKE ?", "%"+f.InvoiceID+"%")
	}
	if f.TemplateName != "" {
		q = q.Where("template_name LIKE ?", "%"+f.TemplateName+"%")
	}

	var recs []models.GenerationRecord
	err := q.Order("timestamp DESC, id DESC").Limit(limit).Find(&recs).Error
	return recs, err
}

// Get returns a single audit row by id.
func (s *Store) Get(id uint) (*models.GenerationRecord, bool, error) {
	var rec models.GenerationRecord
	err := s.db.First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &rec, true, nil
}

// Delete removes a single audit row by id, reporting whether a row existed.
func (s *Store) Delete(id uint) (bool, error) {
	res := s.db.Delete(&models.GenerationRecord{}, id)
	return res.RowsAffected > 0, res.Error
}

// ClearAll removes every audit row.
func (s *Store) ClearAll() error {
	return s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.GenerationRecord{}).Error
}

// Stats summarizes generation counts.
type Stats struct {
	Total     int64 `json:"total"`
	Today     int64 `json:"today"`
	Last7Days int64 `json:"last7days"`
}

func (s *Store) Stats() (Stats, error) {
	var st Stats
	m := s.db.Model(&models.GenerationRecord{})

	if err := m.Count(&st.Total).Error; err != nil {
		return st, err
	}
	now := time.Now()
	if err := s.db.Model(&models.GenerationRecord{}).
		Where("timestamp >= ?", utils.BeginningOfDay(now)).
		Count(&st.Today).Error; err != nil {
		return st, err
	}
	err := s.db.Model(&models.GenerationRecord{}).
		Where("timestamp >= ?", utils.BeginningOfDay(now.AddDate(0, 0, -7))).
		Count(&st.Last7Days).Error
	return st, err
}
