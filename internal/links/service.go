package links

import (
	"log/slog"
	"time"
)

// Repository defines the data access methods for external links
type Repository interface {
	GetByUserID(userID int64) ([]*ExternalLink, error)
	GetByID(id int64) (*ExternalLink, error)
	Create(link *ExternalLink) error
	Update(link *ExternalLink) error
	Delete(id, userID int64) error
	ReorderForUser(userID int64, orderedIDs []int64) error
}

// Service handles quick-link business logic.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) ListForUser(userID int64) ([]*ExternalLink, error) {
	links, err := s.repo.GetByUserID(userID)
	if err != nil {
		s.logger.Error("failed to list links", "error", err, "user_id", userID)
		return nil, err
	}
	return links, nil
}

func (s *Service) Create(userID int64, dto CreateLinkDTO) (*ExternalLink, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	link := &ExternalLink{
		UserID:    userID,
		Title:     dto.Title,
		URL:       dto.URL,
		Position:  len(existing),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.repo.Create(link); err != nil {
		s.logger.Error("failed to create link", "error", err, "user_id", userID)
		return nil, err
	}

	return link, nil
}

func (s *Service) Update(id, userID int64, dto UpdateLinkDTO) (*ExternalLink, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	link, err := s.ownedLink(id, userID)
	if err != nil {
		return nil, err
	}

	if dto.Title != nil {
		link.Title = *dto.Title
	}
	if dto.URL != nil {
		link.URL = *dto.URL
	}
	link.UpdatedAt = time.Now()

	if err := s.repo.Update(link); err != nil {
		s.logger.Error("failed to update link", "error", err, "link_id", id)
		return nil, err
	}

	return link, nil
}

func (s *Service) Delete(id, userID int64) error {
	if _, err := s.ownedLink(id, userID); err != nil {
		return err
	}
	return s.repo.Delete(id, userID)
}

// Reorder rewrites positions for all of the user's links in one
// transaction. The id list must cover only links the user owns; unknown
// or foreign ids fail the whole batch.
func (s *Service) Reorder(userID int64, dto ReorderDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	existing, err := s.repo.GetByUserID(userID)
	if err != nil {
		return err
	}

	owned := make(map[int64]struct{}, len(existing))
	for _, l := range existing {
		owned[l.ID] = struct{}{}
	}
	for _, id := range dto.OrderedIDs {
		if _, ok := owned[id]; !ok {
			s.logger.Warn("reorder rejected: id not owned by user", "link_id", id, "user_id", userID)
			return ErrOwnerMismatch
		}
	}

	if err := s.repo.ReorderForUser(userID, dto.OrderedIDs); err != nil {
		s.logger.Error("failed to reorder links", "error", err, "user_id", userID)
		return err
	}
	return nil
}

func (s *Service) ownedLink(id, userID int64) (*ExternalLink, error) {
	link, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if link.UserID != userID {
		s.logger.Warn("link access denied", "link_id", id, "user_id", userID, "owner_id", link.UserID)
		return nil, ErrOwnerMismatch
	}
	return link, nil
}
