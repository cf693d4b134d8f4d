package kpi

import (
	"errors"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestKPIService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "KPI Service Suite")
}

// MockRepository implements Repository and counts fetches.
type MockRepository struct {
	records    []*Record
	fetchCount int
	shouldFail bool
	failError  error
}

func (m *MockRepository) ListByPeriod(period string) ([]*Record, error) {
	m.fetchCount++
	if m.shouldFail {
		return nil, m.failError
	}
	return m.records, nil
}

var _ = Describe("KPI Service", func() {
	var (
		mockRepo *MockRepository
		service  *Service
		clock    time.Time
	)

	BeforeEach(func() {
		clock = time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
		mockRepo = &MockRepository{
			records: []*Record{
				{ID: 1, Metric: "active_members", Label: "Active Members", Value: 48210, Period: "2026-Q3"},
			},
		}
		service = NewService(mockRepo, DefaultStaleTime)
		service.now = func() time.Time { return clock }
	})

	It("should fetch from the repository on first read", func() {
		records, err := service.ListByPeriod("2026-Q3")
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))
		Expect(mockRepo.fetchCount).To(Equal(1))
	})

	It("should serve from cache inside the stale window", func() {
		_, err := service.ListByPeriod("2026-Q3")
		Expect(err).NotTo(HaveOccurred())

		clock = clock.Add(30 * time.Second)
		_, err = service.ListByPeriod("2026-Q3")
		Expect(err).NotTo(HaveOccurred())
		Expect(mockRepo.fetchCount).To(Equal(1))
	})

	It("should refetch once the entry goes stale", func() {
		_, err := service.ListByPeriod("2026-Q3")
		Expect(err).NotTo(HaveOccurred())

		clock = clock.Add(61 * time.Second)
		_, err = service.ListByPeriod("2026-Q3")
		Expect(err).NotTo(HaveOccurred())
		Expect(mockRepo.fetchCount).To(Equal(2))
	})

	It("should cache per period", func() {
		_, err := service.ListByPeriod("2026-Q2")
		Expect(err).NotTo(HaveOccurred())
		_, err = service.ListByPeriod("2026-Q3")
		Expect(err).NotTo(HaveOccurred())
		Expect(mockRepo.fetchCount).To(Equal(2))
	})

	It("should serve the stale copy when a refresh fails", func() {
		records, err := service.ListByPeriod("2026-Q3")
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))

		clock = clock.Add(2 * time.Minute)
		mockRepo.shouldFail = true
		mockRepo.failError = errors.New("connection refused")

		records, err = service.ListByPeriod("2026-Q3")
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))
	})

	It("should fail when there is no cached copy to fall back on", func() {
		mockRepo.shouldFail = true
		mockRepo.failError = errors.New("connection refused")

		_, err := service.ListByPeriod("2026-Q3")
		Expect(err).To(HaveOccurred())
	})

	It("should refetch after Invalidate", func() {
		_, err := service.ListByPeriod("2026-Q3")
		Expect(err).NotTo(HaveOccurred())

		service.Invalidate("2026-Q3")
		_, err = service.ListByPeriod("2026-Q3")
		Expect(err).NotTo(HaveOccurred())
		Expect(mockRepo.fetchCount).To(Equal(2))
	})
})
