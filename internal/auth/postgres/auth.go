package postgres

import (
	"database/sql"
	"fmt"

	"github.com/commandos-health/commandos/internal/auth"
	"github.com/commandos-health/commandos/internal/roles"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetPasswordForEmail(email string) (string, string, error) {
	var passwordHash string
	var userID string
	query := `SELECT id, password_hash FROM users WHERE email = ? AND is_active = true`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&userID, &passwordHash); err != nil {
		if err == sql.ErrNoRows {
			return "", "", fmt.Errorf("user not found")
		}
		return "", "", err
	}
	return passwordHash, userID, nil
}

func (r *Repository) GetUserByID(userID int64) (*auth.User, error) {
	var user auth.User
	var roleStr string

	query := `SELECT u.id, u.email, u.is_active, COALESCE(p.role, ''), COALESCE(p.display_name, '')
	          FROM users u
	          LEFT JOIN profiles p ON p.user_id = u.id
	          WHERE u.id = ?`

	row := r.db.Raw(query, userID).Row()
	if err := row.Scan(&user.ID, &user.Email, &user.IsActive, &roleStr, &user.DisplayName); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}

	user.Role = roles.Parse(roleStr)
	return &user, nil
}
