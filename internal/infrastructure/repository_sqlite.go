package infrastructure

import (
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/vidgrab-go/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrAcquisitionNotFound is returned when no record matches an ID
var ErrAcquisitionNotFound = errors.New("acquisition not found")

// SQLiteAcquisitionRepository implements AcquisitionRepository using SQLite
type SQLiteAcquisitionRepository struct {
	db *gorm.DB
}

// NewSQLiteAcquisitionRepository opens (or creates) the journal database.
// dsn may be a file path or an in-memory DSN such as "file::memory:?cache=shared".
func NewSQLiteAcquisitionRepository(dsn string) (*SQLiteAcquisitionRepository, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// a single connection keeps shared-cache in-memory databases alive and
	// serialises writers
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&domain.Acquisition{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteAcquisitionRepository{db: db}, nil
}

// Create creates a new acquisition record
func (r *SQLiteAcquisitionRepository) Create(acq *domain.Acquisition) error {
	return r.db.Create(acq).Error
}

// Update updates an existing acquisition record
func (r *SQLiteAcquisitionRepository) Update(acq *domain.Acquisition) error {
	return r.db.Save(acq).Error
}

// FindByID finds an acquisition by ID
func (r *SQLiteAcquisitionRepository) FindByID(id string) (*domain.Acquisition, error) {
	var acq domain.Acquisition
	err := r.db.First(&acq, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAcquisitionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acq, nil
}

// FindRecent returns up to limit records, newest first
func (r *SQLiteAcquisitionRepository) FindRecent(limit int) ([]*domain.Acquisition, error) {
	var acquisitions []*domain.Acquisition
	query := r.db.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&acquisitions).Error
	return acquisitions, err
}

// GetStats returns acquisition statistics
func (r *SQLiteAcquisitionRepository) GetStats() (*domain.AcquisitionStats, error) {
	stats := &domain.AcquisitionStats{}

	if err := r.db.Model(&domain.Acquisition{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	statusCounts := []struct {
		Status domain.AcquisitionStatus
		Count  int64
	}{}

	if err := r.db.Model(&domain.Acquisition{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range statusCounts {
		switch sc.Status {
		case domain.StatusReceived, domain.StatusProcessing:
			stats.Processing += sc.Count
		case domain.StatusServed:
			stats.Served = sc.Count
		case domain.StatusRejected:
			stats.Rejected = sc.Count
		case domain.StatusFailed:
			stats.Failed = sc.Count
		}
	}

	if err := r.db.Model(&domain.Acquisition{}).
		Where("status = ?", domain.StatusServed).
		Select("COALESCE(SUM(size_bytes), 0)").
		Scan(&stats.ServedBytes).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// DeleteOlderThan removes records created before cutoff
func (r *SQLiteAcquisitionRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff).Delete(&domain.Acquisition{})
	return result.RowsAffected, result.Error
}

// Close closes the database connection
func (r *SQLiteAcquisitionRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
