package links

import (
	"errors"
	"strings"
	"time"
)

// ExternalLink is one entry in a user's quick-links panel. Rows are owned
// by their user; every mutation filters on user_id.
type ExternalLink struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"user_id" gorm:"column:user_id;not null"`
	Title     string    `json:"title" gorm:"not null"`
	URL       string    `json:"url" gorm:"not null"`
	Position  int       `json:"position" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (ExternalLink) TableName() string {
	return "external_links"
}

// CreateLinkDTO is the request payload for creating a link.
type CreateLinkDTO struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

func (dto CreateLinkDTO) Validate() error {
	if strings.TrimSpace(dto.Title) == "" {
		return errors.New("title is required")
	}
	if !strings.HasPrefix(dto.URL, "http://") && !strings.HasPrefix(dto.URL, "https://") {
		return errors.New("url must start with http:// or https://")
	}
	return nil
}

// UpdateLinkDTO is the request payload for updating a link.
type UpdateLinkDTO struct {
	Title *string `json:"title,omitempty"`
	URL   *string `json:"url,omitempty"`
}

func (dto UpdateLinkDTO) Validate() error {
	if dto.Title == nil && dto.URL == nil {
		return errors.New("at least one of title or url is required")
	}
	if dto.Title != nil && strings.TrimSpace(*dto.Title) == "" {
		return errors.New("title cannot be empty")
	}
	if dto.URL != nil && !strings.HasPrefix(*dto.URL, "http://") && !strings.HasPrefix(*dto.URL, "https://") {
		return errors.New("url must start with http:// or https://")
	}
	return nil
}

// ReorderDTO carries the full ordered id list for a user's links.
type ReorderDTO struct {
	OrderedIDs []int64 `json:"ordered_ids"`
}

func (dto ReorderDTO) Validate() error {
	if len(dto.OrderedIDs) == 0 {
		return errors.New("ordered_ids is required")
	}
	seen := make(map[int64]struct{}, len(dto.OrderedIDs))
	for _, id := range dto.OrderedIDs {
		if _, dup := seen[id]; dup {
			return errors.New("ordered_ids contains duplicates")
		}
		seen[id] = struct{}{}
	}
	return nil
}

var (
	ErrLinkNotFound  = errors.New("link not found")
	ErrOwnerMismatch = errors.New("link is owned by another user")
)
