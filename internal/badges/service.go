package badges

import (
	"log/slog"
	"strings"

	"github.com/commandos-health/commandos/pkg/logger"
)

type Repository interface {
	GetByUserID(userID int64) ([]*Badge, error)
	Upsert(badge *Badge) error
	Clear(userID int64, key string) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository) *Service {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Service{
		repo:   repo,
		logger: lg,
	}
}

func (s *Service) ListForUser(userID int64) ([]*Badge, error) {
	return s.repo.GetByUserID(userID)
}

func (s *Service) Upsert(userID int64, dto UpsertBadgeDTO) (*Badge, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	badge := &Badge{
		UserID: userID,
		Key:    strings.TrimSpace(dto.Key),
		Count:  dto.Count,
	}
	if err := s.repo.Upsert(badge); err != nil {
		s.logger.Error("Upsert: repository error", "error", err, "user_id", userID, "key", badge.Key)
		return nil, err
	}
	return badge, nil
}

// Clear resets a single counter to zero. Clearing a key that was never
// set is not an error.
func (s *Service) Clear(userID int64, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrBadgeNotFound
	}
	return s.repo.Clear(userID, key)
}
