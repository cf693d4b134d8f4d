package postgres

import (
	"github.com/commandos-health/commandos/internal/kpi"
	"gorm.io/gorm"
)

type KPIRepository struct {
	db *gorm.DB
}

func NewKPIRepository(db *gorm.DB) *KPIRepository {
	return &KPIRepository{db: db}
}

func (r *KPIRepository) ListByPeriod(period string) ([]*kpi.Record, error) {
	var out []*kpi.Record
	q := r.db.Order("metric ASC")
	if period != "" {
		q = q.Where("period = ?", period)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
