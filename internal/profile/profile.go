package profile

import (
	"errors"
	"time"

	"github.com/commandos-health/commandos/internal/roles"
)

// Profile is the role row behind the access gate. One row per
// authenticated user; absence of a row means the default role.
type Profile struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	UserID      int64     `json:"user_id" gorm:"column:user_id;uniqueIndex;not null"`
	Role        string    `json:"role" gorm:"not null;default:staff"`
	DisplayName string    `json:"display_name" gorm:"column:display_name"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Profile) TableName() string {
	return "profiles"
}

// ParsedRole normalizes the stored free-text role.
func (p *Profile) ParsedRole() roles.Role {
	return roles.Parse(p.Role)
}

// UpdateProfileDTO is the payload for the admin profile-update endpoint.
type UpdateProfileDTO struct {
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
}

func (dto UpdateProfileDTO) Validate() error {
	if dto.Role == "" && dto.DisplayName == "" {
		return errors.New("at least one of role or display_name is required")
	}
	return nil
}

var ErrProfileNotFound = errors.New("profile not found")
