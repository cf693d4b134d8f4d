package badges_test

import (
	"testing"

	"github.com/commandos-health/commandos/internal/badges"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestBadgesService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Badges Service Suite")
}

// MockRepository implements badges.Repository for testing
type MockRepository struct {
	byUserKey map[int64]map[string]*badges.Badge
}

func NewMockRepository() *MockRepository {
	return &MockRepository{byUserKey: make(map[int64]map[string]*badges.Badge)}
}

func (m *MockRepository) GetByUserID(userID int64) ([]*badges.Badge, error) {
	var out []*badges.Badge
	for _, b := range m.byUserKey[userID] {
		out = append(out, b)
	}
	return out, nil
}

func (m *MockRepository) Upsert(badge *badges.Badge) error {
	if m.byUserKey[badge.UserID] == nil {
		m.byUserKey[badge.UserID] = make(map[string]*badges.Badge)
	}
	m.byUserKey[badge.UserID][badge.Key] = badge
	return nil
}

func (m *MockRepository) Clear(userID int64, key string) error {
	if b, ok := m.byUserKey[userID][key]; ok {
		b.Count = 0
	}
	return nil
}

var _ = Describe("Badges Service", func() {
	var (
		mockRepo *MockRepository
		service  *badges.Service
	)

	BeforeEach(func() {
		mockRepo = NewMockRepository()
		service = badges.NewService(mockRepo)
	})

	Describe("Upsert", func() {
		It("should create a counter", func() {
			badge, err := service.Upsert(1, badges.UpsertBadgeDTO{Key: "inbox", Count: 3})
			Expect(err).NotTo(HaveOccurred())
			Expect(badge.Count).To(Equal(3))

			list, err := service.ListForUser(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
		})

		It("should overwrite an existing counter", func() {
			_, err := service.Upsert(1, badges.UpsertBadgeDTO{Key: "inbox", Count: 3})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Upsert(1, badges.UpsertBadgeDTO{Key: "inbox", Count: 7})
			Expect(err).NotTo(HaveOccurred())

			list, _ := service.ListForUser(1)
			Expect(list).To(HaveLen(1))
			Expect(list[0].Count).To(Equal(7))
		})

		It("should reject a blank key", func() {
			_, err := service.Upsert(1, badges.UpsertBadgeDTO{Key: " ", Count: 1})
			Expect(err).To(HaveOccurred())
		})

		It("should reject a negative count", func() {
			_, err := service.Upsert(1, badges.UpsertBadgeDTO{Key: "inbox", Count: -1})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Clear", func() {
		It("should reset the counter to zero", func() {
			_, err := service.Upsert(1, badges.UpsertBadgeDTO{Key: "approvals", Count: 5})
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Clear(1, "approvals")).To(Succeed())

			list, _ := service.ListForUser(1)
			Expect(list[0].Count).To(Equal(0))
		})

		It("should not fail for a key that was never set", func() {
			Expect(service.Clear(1, "ghost")).To(Succeed())
		})

		It("should reject a blank key", func() {
			Expect(service.Clear(1, "")).To(HaveOccurred())
		})
	})
})
