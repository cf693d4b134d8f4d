package badges

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Badge is a per-user notification counter keyed by a dashboard section
// (e.g. "inbox", "approvals"). Counts never go negative.
type Badge struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int64     `json:"user_id" gorm:"not null;uniqueIndex:idx_badges_user_key"`
	Key       string    `json:"key" gorm:"not null;uniqueIndex:idx_badges_user_key"`
	Count     int       `json:"count" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Badge) TableName() string {
	return "badges"
}

type UpsertBadgeDTO struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

func (d UpsertBadgeDTO) Validate() error {
	var errs []string

	if strings.TrimSpace(d.Key) == "" {
		errs = append(errs, "key is required")
	}
	if d.Count < 0 {
		errs = append(errs, "count must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

var ErrBadgeNotFound = errors.New("badge not found")
