package dataimport

import (
	"errors"
	"time"

	"github.com/commandos-health/commandos/internal/roles"
)

// AllowedRoles may call the import endpoint.
var AllowedRoles = []roles.Role{roles.RoleAdmin, roles.RoleCEO}

// Staging tables the import endpoint may target. Each has a fixed schema;
// rows land raw and a named transform procedure promotes them afterwards.
const (
	TableClaims     = "staging_claims"
	TableEnrollment = "staging_enrollment"
	TableRevenue    = "staging_revenue"
	TableMarketing  = "staging_marketing"
)

var stagingTables = map[string]struct{}{
	TableClaims:     {},
	TableEnrollment: {},
	TableRevenue:    {},
	TableMarketing:  {},
}

// ValidTable reports whether the target is one of the staging tables.
func ValidTable(name string) bool {
	_, ok := stagingTables[name]
	return ok
}

// ImportDTO is the request payload for the import endpoint.
type ImportDTO struct {
	Data        []map[string]interface{} `json:"data"`
	TargetTable string                   `json:"targetTable"`
	SheetName   string                   `json:"sheetName,omitempty"`
	OrgID       string                   `json:"orgId"`
}

func (dto ImportDTO) Validate() error {
	if len(dto.Data) == 0 {
		return errors.New("data must contain at least one row")
	}
	if !ValidTable(dto.TargetTable) {
		return errors.New("targetTable must be one of the staging tables")
	}
	if dto.OrgID == "" {
		return errors.New("orgId is required")
	}
	return nil
}

// RowError reports one row that failed its transform.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult is the response payload.
type ImportResult struct {
	Success      bool       `json:"success"`
	BatchID      string     `json:"batchId"`
	RowsImported int        `json:"rowsImported"`
	RowsFailed   int        `json:"rowsFailed"`
	Errors       []RowError `json:"errors,omitempty"`
}

// ClaimRow is the staging_claims schema.
type ClaimRow struct {
	ID          int64     `gorm:"primaryKey"`
	BatchID     string    `gorm:"column:batch_id;not null"`
	OrgID       string    `gorm:"column:org_id;not null"`
	ClaimID     string    `gorm:"column:claim_id;not null"`
	MemberID    string    `gorm:"column:member_id"`
	Amount      float64   `gorm:"column:amount"`
	ServiceDate time.Time `gorm:"column:service_date"`
	Status      string    `gorm:"column:status"`
	CreatedAt   time.Time `gorm:"column:created_at;default:now()"`
}

func (ClaimRow) TableName() string { return TableClaims }

// EnrollmentRow is the staging_enrollment schema.
type EnrollmentRow struct {
	ID            int64     `gorm:"primaryKey"`
	BatchID       string    `gorm:"column:batch_id;not null"`
	OrgID         string    `gorm:"column:org_id;not null"`
	MemberID      string    `gorm:"column:member_id;not null"`
	PlanCode      string    `gorm:"column:plan_code"`
	EffectiveDate time.Time `gorm:"column:effective_date"`
	Status        string    `gorm:"column:status"`
	CreatedAt     time.Time `gorm:"column:created_at;default:now()"`
}

func (EnrollmentRow) TableName() string { return TableEnrollment }

// RevenueRow is the staging_revenue schema.
type RevenueRow struct {
	ID        int64     `gorm:"primaryKey"`
	BatchID   string    `gorm:"column:batch_id;not null"`
	OrgID     string    `gorm:"column:org_id;not null"`
	Period    string    `gorm:"column:period;not null"`
	Amount    float64   `gorm:"column:amount;not null"`
	Segment   string    `gorm:"column:segment"`
	Source    string    `gorm:"column:source"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
}

func (RevenueRow) TableName() string { return TableRevenue }

// MarketingRow is the staging_marketing schema.
type MarketingRow struct {
	ID         int64     `gorm:"primaryKey"`
	BatchID    string    `gorm:"column:batch_id;not null"`
	OrgID      string    `gorm:"column:org_id;not null"`
	CampaignID string    `gorm:"column:campaign_id;not null"`
	Channel    string    `gorm:"column:channel"`
	Spend      float64   `gorm:"column:spend"`
	Leads      int64     `gorm:"column:leads"`
	Period     string    `gorm:"column:period"`
	CreatedAt  time.Time `gorm:"column:created_at;default:now()"`
}

func (MarketingRow) TableName() string { return TableMarketing }

var (
	ErrEmptyData    = errors.New("data must contain at least one row")
	ErrInvalidTable = errors.New("invalid staging table")
)
