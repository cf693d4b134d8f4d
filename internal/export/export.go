package export

import (
	"errors"

	"github.com/commandos-health/commandos/internal/roles"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// AllowedRoles may call the export endpoint. Narrower than the upload
// list.
var AllowedRoles = []roles.Role{roles.RoleAdmin, roles.RoleCEO, roles.RoleHIPAAOfficer}

// ExportDTO is the request payload for the export endpoint. Rows are
// assumed homogeneous; the header comes from the first row's keys.
type ExportDTO struct {
	Format    string                   `json:"format"`
	Data      []map[string]interface{} `json:"data"`
	Filename  string                   `json:"filename,omitempty"`
	SheetName string                   `json:"sheetName,omitempty"`
}

func (dto ExportDTO) Validate() error {
	if dto.Format != FormatCSV && dto.Format != FormatXLSX {
		return errors.New("format must be 'csv' or 'xlsx'")
	}
	if len(dto.Data) == 0 {
		return errors.New("data must contain at least one row")
	}
	return nil
}

// Result is a fully buffered export file.
type Result struct {
	Filename    string
	ContentType string
	Bytes       []byte
	RowCount    int
}

var (
	ErrEmptyData     = errors.New("data must contain at least one row")
	ErrInvalidFormat = errors.New("unsupported export format")
)
