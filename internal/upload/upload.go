package upload

import (
	"errors"

	"github.com/commandos-health/commandos/internal/roles"
)

// AllowedRoles may call the upload endpoint. Broader than the export
// list; the divergence is preserved as-is pending product input.
var AllowedRoles = []roles.Role{
	roles.RoleAdmin,
	roles.RoleCEO,
	roles.RoleCTO,
	roles.RoleCMO,
	roles.RoleHIPAAOfficer,
}

// Result is the response body for a stored upload.
type Result struct {
	Success   bool   `json:"success"`
	Key       string `json:"key"`
	PublicURL string `json:"publicUrl"`
	Path      string `json:"path"`
}

var (
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
	ErrEmptyFile    = errors.New("file is empty")
	ErrNotMultipart = errors.New("request must be multipart/form-data")
)
