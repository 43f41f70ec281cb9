package domain

import "time"

// AcquisitionRepository defines the interface for acquisition journal persistence
type AcquisitionRepository interface {
	// Create creates a new acquisition record
	Create(acq *Acquisition) error

	// Update updates an existing acquisition record
	Update(acq *Acquisition) error

	// FindByID finds an acquisition by ID
	FindByID(id string) (*Acquisition, error)

	// FindRecent returns the newest records first
	FindRecent(limit int) ([]*Acquisition, error)

	// GetStats returns acquisition statistics
	GetStats() (*AcquisitionStats, error)

	// DeleteOlderThan removes records created before cutoff and returns how many
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// AcquisitionStats represents acquisition statistics
type AcquisitionStats struct {
	Total       int64 `json:"total"`
	Processing  int64 `json:"processing"`
	Served      int64 `json:"served"`
	Rejected    int64 `json:"rejected"`
	Failed      int64 `json:"failed"`
	ServedBytes int64 `json:"served_bytes"`
}
