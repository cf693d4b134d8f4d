package postgres

import (
	"time"

	"github.com/commandos-health/commandos/internal/audit"
	"gorm.io/gorm"
)

// AuditRepository implements the audit.Repository interface using GORM
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) audit.Repository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(entry *audit.Entry) error {
	return r.db.Create(entry).Error
}

func (r *AuditRepository) CountByEventSince(eventType, ipAddress string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&audit.Entry{}).
		Where("event_type = ? AND ip_address = ? AND created_at >= ?", eventType, ipAddress, since).
		Count(&count).Error
	return count, err
}

func (r *AuditRepository) ListRecent(limit, offset int) ([]*audit.Entry, error) {
	var entries []*audit.Entry
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	return entries, err
}
