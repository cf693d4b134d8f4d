package postgres

import (
	"time"

	"github.com/commandos-health/commandos/internal/badges"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeRepository struct {
	db *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

func (r *BadgeRepository) GetByUserID(userID int64) ([]*badges.Badge, error) {
	var out []*badges.Badge
	err := r.db.
		Where("user_id = ?", userID).
		Order("key ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BadgeRepository) Upsert(badge *badges.Badge) error {
	badge.UpdatedAt = time.Now()
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"count", "updated_at"}),
	}).Create(badge).Error
}

func (r *BadgeRepository) Clear(userID int64, key string) error {
	return r.db.Model(&badges.Badge{}).
		Where("user_id = ? AND key = ?", userID, key).
		Updates(map[string]interface{}{"count": 0, "updated_at": time.Now()}).Error
}
