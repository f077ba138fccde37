package models

import "time"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// GenerationRecord is one immutable audit row describing a single generation
// attempt. ID and Timestamp are assigned by the store at insert time; no row
// is ever updated after creation.
type GenerationRecord struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Timestamp    time.Time `gorm:"index;not null" json:"timestamp"`
	InvoiceID    string    `gorm:"not null" json:"invoice_id"`
	CustomerName string    `json:"customer_name"`
	DataFile     string    `gorm:"not null" json:"data_file"`
	TemplateName string    `gorm:"not null" json:"template_name"`
	OutputFile   string    `json:"output_file"`
	Status       string    `gorm:"not null" json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

func (GenerationRecord) TableName() string { return "generation_history" }
