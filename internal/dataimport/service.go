package dataimport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/commandos-health/commandos/internal/audit"
	"github.com/commandos-health/commandos/internal/securestore"
	"github.com/google/uuid"
)

// Repository defines the persistence methods for staged rows.
type Repository interface {
	InsertClaims(rows []*ClaimRow) error
	InsertEnrollment(rows []*EnrollmentRow) error
	InsertRevenue(rows []*RevenueRow) error
	InsertMarketing(rows []*MarketingRow) error
	RunTransform(table, batchID string) error
}

// AuditRecorder records one row per import batch.
type AuditRecorder interface {
	Record(ctx context.Context, dto audit.LogDTO, userID *int64, ipAddress, userAgent string) (*audit.Entry, bool, error)
}

// Service stages uploaded rows and kicks the promote procedure. Row
// failures are collected per batch; failure details are sealed before
// they are persisted in the audit trail since raw rows can carry PHI.
type Service struct {
	repo     Repository
	recorder AuditRecorder
	sealer   *securestore.Store
	logger   *slog.Logger
}

func NewService(repo Repository, recorder AuditRecorder, sealer *securestore.Store, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		recorder: recorder,
		sealer:   sealer,
		logger:   logger,
	}
}

// Import transforms and stages the batch, then runs the named transform
// procedure on the inserted rows. A transform-procedure failure is an
// error even when staging succeeded, since the staged rows are pending
// until promoted.
func (s *Service) Import(ctx context.Context, dto ImportDTO, userID int64, ipAddress, userAgent string) (*ImportResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	batchID := uuid.NewString()
	var rowErrors []RowError
	imported := 0

	insert, err := s.stageRows(dto, batchID, &rowErrors, &imported)
	if err != nil {
		return nil, err
	}

	if imported > 0 {
		if err := insert(); err != nil {
			s.logger.Error("import: staging insert failed", "error", err, "batch_id", batchID, "table", dto.TargetTable)
			return nil, err
		}

		if err := s.repo.RunTransform(dto.TargetTable, batchID); err != nil {
			s.logger.Error("import: transform procedure failed", "error", err, "batch_id", batchID, "table", dto.TargetTable)
			return nil, fmt.Errorf("transform procedure failed: %w", err)
		}
	}

	s.auditBatch(ctx, dto, batchID, imported, rowErrors, userID, ipAddress, userAgent)

	return &ImportResult{
		Success:      true,
		BatchID:      batchID,
		RowsImported: imported,
		RowsFailed:   len(rowErrors),
		Errors:       rowErrors,
	}, nil
}

// stageRows runs the per-table transform over the batch and returns a
// closure that performs the bulk insert for the surviving rows.
func (s *Service) stageRows(dto ImportDTO, batchID string, rowErrors *[]RowError, imported *int) (func() error, error) {
	switch dto.TargetTable {
	case TableClaims:
		var rows []*ClaimRow
		for i, raw := range dto.Data {
			row, err := transformClaim(raw, batchID, dto.OrgID)
			if err != nil {
				*rowErrors = append(*rowErrors, RowError{Row: i, Message: err.Error()})
				continue
			}
			rows = append(rows, row)
		}
		*imported = len(rows)
		return func() error { return s.repo.InsertClaims(rows) }, nil

	case TableEnrollment:
		var rows []*EnrollmentRow
		for i, raw := range dto.Data {
			row, err := transformEnrollment(raw, batchID, dto.OrgID)
			if err != nil {
				*rowErrors = append(*rowErrors, RowError{Row: i, Message: err.Error()})
				continue
			}
			rows = append(rows, row)
		}
		*imported = len(rows)
		return func() error { return s.repo.InsertEnrollment(rows) }, nil

	case TableRevenue:
		var rows []*RevenueRow
		for i, raw := range dto.Data {
			row, err := transformRevenue(raw, batchID, dto.OrgID)
			if err != nil {
				*rowErrors = append(*rowErrors, RowError{Row: i, Message: err.Error()})
				continue
			}
			rows = append(rows, row)
		}
		*imported = len(rows)
		return func() error { return s.repo.InsertRevenue(rows) }, nil

	case TableMarketing:
		var rows []*MarketingRow
		for i, raw := range dto.Data {
			row, err := transformMarketing(raw, batchID, dto.OrgID)
			if err != nil {
				*rowErrors = append(*rowErrors, RowError{Row: i, Message: err.Error()})
				continue
			}
			rows = append(rows, row)
		}
		*imported = len(rows)
		return func() error { return s.repo.InsertMarketing(rows) }, nil
	}

	return nil, ErrInvalidTable
}

func (s *Service) auditBatch(ctx context.Context, dto ImportDTO, batchID string, imported int, rowErrors []RowError, userID int64, ipAddress, userAgent string) {
	details := map[string]interface{}{
		"target_table":  dto.TargetTable,
		"batch_id":      batchID,
		"rows_imported": imported,
		"rows_failed":   len(rowErrors),
		"org_id":        dto.OrgID,
	}

	if len(rowErrors) > 0 && s.sealer != nil {
		if raw, err := json.Marshal(rowErrors); err == nil {
			if sealed, err := s.sealer.EncryptString(string(raw)); err == nil {
				details["row_errors_sealed"] = sealed
			} else {
				s.logger.Warn("import: failed to seal row errors", "error", err)
			}
		}
	}

	_, _, err := s.recorder.Record(ctx, audit.LogDTO{
		EventType:    audit.EventDataImport,
		Action:       fmt.Sprintf("imported %d rows into %s", imported, dto.TargetTable),
		ResourceType: "staging_table",
		ResourceID:   dto.TargetTable,
		Details:      details,
	}, &userID, ipAddress, userAgent)
	if err != nil {
		s.logger.Warn("import audit row failed", "error", err)
	}
}
