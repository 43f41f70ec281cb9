package domain

import (
	"time"

	"github.com/google/uuid"
)

// AcquisitionStatus represents where a request ended up
type AcquisitionStatus string

const (
	StatusReceived   AcquisitionStatus = "received"
	StatusProcessing AcquisitionStatus = "processing"
	StatusServed     AcquisitionStatus = "served"
	StatusRejected   AcquisitionStatus = "rejected"
	StatusFailed     AcquisitionStatus = "failed"
)

// Acquisition is the journal record of one /api/download request
type Acquisition struct {
	ID           string            `json:"id" gorm:"primaryKey"`
	URL          string            `json:"url" gorm:"not null"`
	Platform     Platform          `json:"platform" gorm:"index"`
	Format       FormatKind        `json:"format"`
	Quality      Quality           `json:"quality"`
	Backend      string            `json:"backend"`
	Status       AcquisitionStatus `json:"status" gorm:"not null;index"`
	ErrorKind    ErrorKind         `json:"error_kind,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	FileName     string            `json:"file_name,omitempty"`
	SizeBytes    int64             `json:"size_bytes"`
	CreatedAt    time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
}

// NewAcquisition creates a journal record for a freshly received request
func NewAcquisition(req DownloadRequest, backend string) *Acquisition {
	now := time.Now()
	return &Acquisition{
		ID:        uuid.New().String(),
		URL:       req.URL,
		Format:    req.Format,
		Quality:   req.Quality,
		Backend:   backend,
		Status:    StatusReceived,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkProcessing records that the request passed validation and was dispatched
func (a *Acquisition) MarkProcessing(platform Platform) {
	a.Status = StatusProcessing
	a.Platform = platform
	now := time.Now()
	a.StartedAt = &now
	a.UpdatedAt = now
}

// MarkServed records a successful delivery
func (a *Acquisition) MarkServed(fileName string, size int64) {
	a.Status = StatusServed
	a.FileName = fileName
	a.SizeBytes = size
	now := time.Now()
	a.CompletedAt = &now
	a.UpdatedAt = now
}

// MarkError records a terminal failure. Validation errors are rejections,
// everything else is a failed fetch.
func (a *Acquisition) MarkError(err error) {
	a.ErrorKind = KindOf(err)
	a.ErrorMessage = err.Error()
	if a.ErrorKind == ErrorKindValidation {
		a.Status = StatusRejected
	} else {
		a.Status = StatusFailed
	}
	now := time.Now()
	a.CompletedAt = &now
	a.UpdatedAt = now
}
