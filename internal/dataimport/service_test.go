package dataimport_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/commandos-health/commandos/internal/audit"
	"github.com/commandos-health/commandos/internal/dataimport"
	"github.com/commandos-health/commandos/internal/securestore"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestDataImportService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Data Import Service Suite")
}

// MockRepository implements dataimport.Repository for testing
type MockRepository struct {
	claims        []*dataimport.ClaimRow
	enrollment    []*dataimport.EnrollmentRow
	revenue       []*dataimport.RevenueRow
	marketing     []*dataimport.MarketingRow
	transforms    []string
	transformFail error
	insertFail    error
}

func (m *MockRepository) InsertClaims(rows []*dataimport.ClaimRow) error {
	if m.insertFail != nil {
		return m.insertFail
	}
	m.claims = append(m.claims, rows...)
	return nil
}

func (m *MockRepository) InsertEnrollment(rows []*dataimport.EnrollmentRow) error {
	if m.insertFail != nil {
		return m.insertFail
	}
	m.enrollment = append(m.enrollment, rows...)
	return nil
}

func (m *MockRepository) InsertRevenue(rows []*dataimport.RevenueRow) error {
	if m.insertFail != nil {
		return m.insertFail
	}
	m.revenue = append(m.revenue, rows...)
	return nil
}

func (m *MockRepository) InsertMarketing(rows []*dataimport.MarketingRow) error {
	if m.insertFail != nil {
		return m.insertFail
	}
	m.marketing = append(m.marketing, rows...)
	return nil
}

func (m *MockRepository) RunTransform(table, batchID string) error {
	if m.transformFail != nil {
		return m.transformFail
	}
	m.transforms = append(m.transforms, table+":"+batchID)
	return nil
}

// MockRecorder implements dataimport.AuditRecorder for testing
type MockRecorder struct {
	recorded []audit.LogDTO
}

func (m *MockRecorder) Record(ctx context.Context, dto audit.LogDTO, userID *int64, ipAddress, userAgent string) (*audit.Entry, bool, error) {
	m.recorded = append(m.recorded, dto)
	return &audit.Entry{}, false, nil
}

var _ = Describe("Data Import Service", func() {
	var (
		mockRepo *MockRepository
		recorder *MockRecorder
		sealer   *securestore.Store
		service  *dataimport.Service
	)

	BeforeEach(func() {
		mockRepo = &MockRepository{}
		recorder = &MockRecorder{}
		var err error
		sealer, err = securestore.New(bytes.Repeat([]byte{0x11}, 32))
		Expect(err).NotTo(HaveOccurred())
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = dataimport.NewService(mockRepo, recorder, sealer, logger)
	})

	Describe("claims import", func() {
		It("should stage valid rows and run the transform procedure", func() {
			dto := dataimport.ImportDTO{
				TargetTable: dataimport.TableClaims,
				OrgID:       "org-1",
				Data: []map[string]interface{}{
					{"claim_id": "C-1", "member_id": "M-1", "amount": 120.5, "service_date": "2026-07-01", "status": "paid"},
					{"claim_id": "C-2", "amount": "88.25"},
				},
			}

			result, err := service.Import(context.Background(), dto, 42, "10.0.0.1", "test")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.RowsImported).To(Equal(2))
			Expect(result.RowsFailed).To(Equal(0))
			Expect(mockRepo.claims).To(HaveLen(2))
			Expect(mockRepo.claims[0].Amount).To(Equal(120.5))
			Expect(mockRepo.claims[1].Amount).To(Equal(88.25))

			Expect(mockRepo.transforms).To(HaveLen(1))
			Expect(mockRepo.transforms[0]).To(Equal(dataimport.TableClaims + ":" + result.BatchID))
		})

		It("should stamp every row with the batch id", func() {
			dto := dataimport.ImportDTO{
				TargetTable: dataimport.TableClaims,
				OrgID:       "org-1",
				Data:        []map[string]interface{}{{"claim_id": "C-1"}},
			}

			result, err := service.Import(context.Background(), dto, 1, "", "")
			Expect(err).NotTo(HaveOccurred())

			_, err = uuid.Parse(result.BatchID)
			Expect(err).NotTo(HaveOccurred())
			Expect(mockRepo.claims[0].BatchID).To(Equal(result.BatchID))
			Expect(mockRepo.claims[0].OrgID).To(Equal("org-1"))
		})

		It("should collect row failures without failing the batch", func() {
			dto := dataimport.ImportDTO{
				TargetTable: dataimport.TableClaims,
				OrgID:       "org-1",
				Data: []map[string]interface{}{
					{"claim_id": "C-1"},
					{"member_id": "M-2"},
					{"claim_id": "C-3", "amount": "not-a-number"},
				},
			}

			result, err := service.Import(context.Background(), dto, 1, "", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.RowsImported).To(Equal(1))
			Expect(result.RowsFailed).To(Equal(2))
			Expect(result.Errors[0].Row).To(Equal(1))
			Expect(result.Errors[0].Message).To(ContainSubstring("claim_id is required"))
			Expect(result.Errors[1].Row).To(Equal(2))
		})
	})

	Describe("other staging tables", func() {
		It("should require member_id for enrollment rows", func() {
			dto := dataimport.ImportDTO{
				TargetTable: dataimport.TableEnrollment,
				OrgID:       "org-1",
				Data: []map[string]interface{}{
					{"member_id": "M-1", "plan_code": "GOLD", "effective_date": "2026-01-01"},
					{"plan_code": "SILVER"},
				},
			}

			result, err := service.Import(context.Background(), dto, 1, "", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.RowsImported).To(Equal(1))
			Expect(result.RowsFailed).To(Equal(1))
			Expect(mockRepo.enrollment).To(HaveLen(1))
		})

		It("should require period and amount for revenue rows", func() {
			dto := dataimport.ImportDTO{
				TargetTable: dataimport.TableRevenue,
				OrgID:       "org-1",
				Data: []map[string]interface{}{
					{"period": "2026-Q2", "amount": 1000.0},
					{"period": "2026-Q2"},
					{"amount": 500.0},
				},
			}

			result, err := service.Import(context.Background(), dto, 1, "", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.RowsImported).To(Equal(1))
			Expect(result.RowsFailed).To(Equal(2))
		})

		It("should coerce marketing numerics", func() {
			dto := dataimport.ImportDTO{
				TargetTable: dataimport.TableMarketing,
				OrgID:       "org-1",
				Data: []map[string]interface{}{
					{"campaign_id": "CMP-1", "spend": "1500.75", "leads": 32.0, "channel": "search"},
				},
			}

			result, err := service.Import(context.Background(), dto, 1, "", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.RowsImported).To(Equal(1))
			Expect(mockRepo.marketing[0].Spend).To(Equal(1500.75))
			Expect(mockRepo.marketing[0].Leads).To(Equal(int64(32)))
		})
	})

	Describe("validation and failure handling", func() {
		It("should reject an unknown target table", func() {
			dto := dataimport.ImportDTO{
				TargetTable: "users",
				OrgID:       "org-1",
				Data:        []map[string]interface{}{{"a": "b"}},
			}

			_, err := service.Import(context.Background(), dto, 1, "", "")
			Expect(err).To(HaveOccurred())
		})

		It("should reject an empty batch", func() {
			dto := dataimport.ImportDTO{TargetTable: dataimport.TableClaims, OrgID: "org-1"}

			_, err := service.Import(context.Background(), dto, 1, "", "")
			Expect(err).To(HaveOccurred())
		})

		It("should surface a transform-procedure failure", func() {
			mockRepo.transformFail = errors.New("function process_staging_claims does not exist")
			dto := dataimport.ImportDTO{
				TargetTable: dataimport.TableClaims,
				OrgID:       "org-1",
				Data:        []map[string]interface{}{{"claim_id": "C-1"}},
			}

			_, err := service.Import(context.Background(), dto, 1, "", "")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("transform procedure failed"))
		})
	})

	Describe("audit trail", func() {
		It("should record one batch row with sealed row errors", func() {
			dto := dataimport.ImportDTO{
				TargetTable: dataimport.TableClaims,
				OrgID:       "org-1",
				Data: []map[string]interface{}{
					{"claim_id": "C-1"},
					{"member_id": "M-2"},
				},
			}

			_, err := service.Import(context.Background(), dto, 42, "10.0.0.1", "test")
			Expect(err).NotTo(HaveOccurred())
			Expect(recorder.recorded).To(HaveLen(1))

			details := recorder.recorded[0].Details
			Expect(recorder.recorded[0].EventType).To(Equal(audit.EventDataImport))
			Expect(details["rows_failed"]).To(Equal(1))

			sealed, ok := details["row_errors_sealed"].(string)
			Expect(ok).To(BeTrue())

			opened, err := sealer.DecryptString(sealed)
			Expect(err).NotTo(HaveOccurred())
			Expect(opened).To(ContainSubstring("claim_id is required"))
		})
	})
})
