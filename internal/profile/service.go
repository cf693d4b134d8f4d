package profile

import (
	"context"
	"log/slog"

	"github.com/commandos-health/commandos/internal/roles"
)

// Repository defines the data access methods for profiles
type Repository interface {
	GetByUserID(userID int64) (*Profile, error)
	Upsert(profile *Profile) error
}

// Service resolves roles for the access gate and owns profile updates.
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

// Resolve returns the role and display name for a user. A missing profile
// row resolves to the default role without error. A backend error is
// surfaced so the caller can choose its own degradation: the gate forwards
// the request untouched rather than demoting a known role to the default.
func (s *Service) Resolve(ctx context.Context, userID int64) (roles.Role, string, error) {
	p, err := s.repo.GetByUserID(userID)
	if err != nil {
		if err == ErrProfileNotFound {
			return roles.DefaultRole, "", nil
		}
		s.logger.WarnContext(ctx, "role lookup failed",
			"user_id", userID, "error", err)
		return roles.DefaultRole, "", err
	}
	return p.ParsedRole(), p.DisplayName, nil
}

// Get returns the raw profile row.
func (s *Service) Get(userID int64) (*Profile, error) {
	return s.repo.GetByUserID(userID)
}

// Update applies an admin edit to a user's profile, creating the row if
// the user has never had one.
func (s *Service) Update(userID int64, dto UpdateProfileDTO) (*Profile, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByUserID(userID)
	if err != nil {
		if err != ErrProfileNotFound {
			return nil, err
		}
		p = &Profile{UserID: userID, Role: roles.DefaultRole.String()}
	}

	if dto.Role != "" {
		p.Role = roles.Parse(dto.Role).String()
	}
	if dto.DisplayName != "" {
		p.DisplayName = dto.DisplayName
	}

	if err := s.repo.Upsert(p); err != nil {
		s.logger.Error("failed to upsert profile", "error", err, "user_id", userID)
		return nil, err
	}

	s.logger.Info("profile updated", "user_id", userID, "role", p.Role)
	return p, nil
}
