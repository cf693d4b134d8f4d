package postgres

import (
	"fmt"

	"github.com/commandos-health/commandos/internal/dataimport"
	"gorm.io/gorm"
)

// StagingRepository implements the dataimport.Repository interface using GORM
type StagingRepository struct {
	db *gorm.DB
}

func NewStagingRepository(db *gorm.DB) dataimport.Repository {
	return &StagingRepository{db: db}
}

func (r *StagingRepository) InsertClaims(rows []*dataimport.ClaimRow) error {
	return r.db.CreateInBatches(rows, 500).Error
}

func (r *StagingRepository) InsertEnrollment(rows []*dataimport.EnrollmentRow) error {
	return r.db.CreateInBatches(rows, 500).Error
}

func (r *StagingRepository) InsertRevenue(rows []*dataimport.RevenueRow) error {
	return r.db.CreateInBatches(rows, 500).Error
}

func (r *StagingRepository) InsertMarketing(rows []*dataimport.MarketingRow) error {
	return r.db.CreateInBatches(rows, 500).Error
}

// RunTransform invokes the promote procedure for a staged batch. Each
// staging table has its own process_<table> function in the database.
func (r *StagingRepository) RunTransform(table, batchID string) error {
	if !dataimport.ValidTable(table) {
		return dataimport.ErrInvalidTable
	}
	call := fmt.Sprintf("SELECT process_%s(?)", table)
	return r.db.Exec(call, batchID).Error
}
