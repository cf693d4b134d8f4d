package postgres

import (
	"errors"

	"github.com/commandos-health/commandos/internal/links"
	"gorm.io/gorm"
)

type LinkRepository struct {
	db *gorm.DB
}

func NewLinkRepository(db *gorm.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

func (r *LinkRepository) GetByUserID(userID int64) ([]*links.ExternalLink, error) {
	var out []*links.ExternalLink
	err := r.db.
		Where("user_id = ?", userID).
		Order("position ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *LinkRepository) GetByID(id int64) (*links.ExternalLink, error) {
	var link links.ExternalLink
	err := r.db.First(&link, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, links.ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *LinkRepository) Create(link *links.ExternalLink) error {
	return r.db.Create(link).Error
}

func (r *LinkRepository) Update(link *links.ExternalLink) error {
	return r.db.Save(link).Error
}

func (r *LinkRepository) Delete(id, userID int64) error {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&links.ExternalLink{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return links.ErrLinkNotFound
	}
	return nil
}

// ReorderForUser rewrites positions in a single transaction so a partial
// failure never leaves the list half-sorted.
func (r *LinkRepository) ReorderForUser(userID int64, orderedIDs []int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for position, id := range orderedIDs {
			result := tx.Model(&links.ExternalLink{}).
				Where("id = ? AND user_id = ?", id, userID).
				Update("position", position)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return links.ErrLinkNotFound
			}
		}
		return nil
	})
}
