package kpi

import "time"

// Record is a single executive KPI metric as maintained by the data
// pipeline. The API surface is read-only.
type Record struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Metric     string    `json:"metric" gorm:"not null;index"`
	Label      string    `json:"label" gorm:"not null"`
	Value      float64   `json:"value" gorm:"not null"`
	Unit       string    `json:"unit"`
	Period     string    `json:"period" gorm:"not null;index"`
	TrendPct   *float64  `json:"trend_pct,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Record) TableName() string {
	return "kpi_records"
}
