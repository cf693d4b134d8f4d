package audit_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/commandos-health/commandos/internal/audit"
	"github.com/commandos-health/commandos/internal/core/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAuditService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Audit Service Suite")
}

// MockRepository implements audit.Repository for testing
type MockRepository struct {
	entries    []*audit.Entry
	shouldFail bool
	failError  error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

func (m *MockRepository) Insert(entry *audit.Entry) error {
	if m.shouldFail {
		return m.failError
	}
	entry.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockRepository) CountByEventSince(eventType, ipAddress string, since time.Time) (int64, error) {
	if m.shouldFail {
		return 0, m.failError
	}
	var count int64
	for _, e := range m.entries {
		if e.EventType == eventType && e.IPAddress == ipAddress && !e.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *MockRepository) ListRecent(limit, offset int) ([]*audit.Entry, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	return m.entries, nil
}

func (m *MockRepository) AddFailedLogin(ip string, at time.Time) {
	m.entries = append(m.entries, &audit.Entry{
		ID:        int64(len(m.entries) + 1),
		EventType: audit.EventLoginFailed,
		Action:    "login attempt failed",
		Severity:  audit.SeverityWarning,
		IPAddress: ip,
		CreatedAt: at,
	})
}

var _ = Describe("Audit Service", func() {
	var (
		mockRepo *MockRepository
		service  *audit.Service
		alerts   chan events.Event
	)

	BeforeEach(func() {
		mockRepo = NewMockRepository()
		alerts = make(chan events.Event, 8)
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		bus := events.NewEventBus(logger)
		bus.Subscribe(audit.AlertEventType, func(ctx context.Context, event events.Event) error {
			alerts <- event
			return nil
		})
		service = audit.NewService(mockRepo, bus, logger)
	})

	Describe("Record", func() {
		It("should classify severity from the event type when omitted", func() {
			entry, _, err := service.Record(context.Background(), audit.LogDTO{
				EventType: audit.EventLoginFailed,
				Action:    "login attempt failed",
			}, nil, "10.0.0.1", "test-agent")

			Expect(err).NotTo(HaveOccurred())
			Expect(entry.Severity).To(Equal(audit.SeverityWarning))
			Expect(entry.Checksum).To(HaveLen(64))
		})

		It("should keep an explicit severity", func() {
			entry, _, err := service.Record(context.Background(), audit.LogDTO{
				EventType: audit.EventConfigChange,
				Action:    "rotated signing key",
				Severity:  audit.SeverityCritical,
			}, nil, "10.0.0.1", "")

			Expect(err).NotTo(HaveOccurred())
			Expect(entry.Severity).To(Equal(audit.SeverityCritical))
		})

		It("should reject an entry without an event type", func() {
			_, _, err := service.Record(context.Background(), audit.LogDTO{
				Action: "something",
			}, nil, "", "")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("alert rules", func() {
		It("should alert on critical severity", func() {
			_, triggered, err := service.Record(context.Background(), audit.LogDTO{
				EventType: audit.EventConfigChange,
				Action:    "disabled audit logging",
				Severity:  audit.SeverityCritical,
			}, nil, "10.0.0.1", "")

			Expect(err).NotTo(HaveOccurred())
			Expect(triggered).To(BeTrue())
			Eventually(alerts).Should(Receive())
		})

		It("should alert on any data export", func() {
			_, triggered, err := service.Record(context.Background(), audit.LogDTO{
				EventType: audit.EventDataExport,
				Action:    "exported 10 rows as csv",
			}, nil, "10.0.0.1", "")

			Expect(err).NotTo(HaveOccurred())
			Expect(triggered).To(BeTrue())
		})

		Context("repeated failed logins", func() {
			It("should alert when the fifth failure lands inside the window", func() {
				now := time.Now()
				for i := 0; i < 4; i++ {
					mockRepo.AddFailedLogin("10.0.0.9", now.Add(-time.Duration(i+1)*time.Minute))
				}

				_, triggered, err := service.Record(context.Background(), audit.LogDTO{
					EventType: audit.EventLoginFailed,
					Action:    "login attempt failed",
				}, nil, "10.0.0.9", "")

				Expect(err).NotTo(HaveOccurred())
				Expect(triggered).To(BeTrue())
			})

			It("should stay quiet when older failures fall outside the window", func() {
				now := time.Now()
				for i := 0; i < 4; i++ {
					mockRepo.AddFailedLogin("10.0.0.9", now.Add(-20*time.Minute))
				}

				_, triggered, err := service.Record(context.Background(), audit.LogDTO{
					EventType: audit.EventLoginFailed,
					Action:    "login attempt failed",
				}, nil, "10.0.0.9", "")

				Expect(err).NotTo(HaveOccurred())
				Expect(triggered).To(BeFalse())
			})

			It("should count failures per address", func() {
				now := time.Now()
				for i := 0; i < 4; i++ {
					mockRepo.AddFailedLogin("172.16.0.5", now.Add(-time.Minute))
				}

				_, triggered, err := service.Record(context.Background(), audit.LogDTO{
					EventType: audit.EventLoginFailed,
					Action:    "login attempt failed",
				}, nil, "10.0.0.9", "")

				Expect(err).NotTo(HaveOccurred())
				Expect(triggered).To(BeFalse())
			})
		})
	})

	Describe("alert delivery", func() {
		It("should complete webhook delivery after the caller's context is cancelled", func() {
			delivered := make(chan struct{}, 1)
			webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(50 * time.Millisecond):
					delivered <- struct{}{}
				}
			}))
			defer webhook.Close()

			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
			bus := events.NewEventBus(logger)
			audit.RegisterNotifiers(bus, logger, audit.NewWebhookNotifier(webhook.URL, 2*time.Second))
			svc := audit.NewService(NewMockRepository(), bus, logger)

			// The HTTP server cancels the request context as soon as the
			// handler returns; cancelling here reproduces that.
			ctx, cancel := context.WithCancel(context.Background())
			_, triggered, err := svc.Record(ctx, audit.LogDTO{
				EventType: audit.EventConfigChange,
				Action:    "disabled audit logging",
				Severity:  audit.SeverityCritical,
			}, nil, "10.0.0.1", "")
			cancel()

			Expect(err).NotTo(HaveOccurred())
			Expect(triggered).To(BeTrue())
			Eventually(delivered, "3s").Should(Receive())
		})
	})

	Describe("Checksum", func() {
		It("should be deterministic for identical payloads", func() {
			userID := int64(42)
			a := &audit.Entry{
				EventType: audit.EventDataExport,
				Action:    "exported",
				Severity:  audit.SeverityInfo,
				UserID:    &userID,
				IPAddress: "10.0.0.1",
				Details:   `{"filename":"x.csv","rows":3}`,
			}
			b := &audit.Entry{
				EventType: audit.EventDataExport,
				Action:    "exported",
				Severity:  audit.SeverityInfo,
				UserID:    &userID,
				IPAddress: "10.0.0.1",
				Details:   `{"filename":"x.csv","rows":3}`,
			}

			Expect(audit.Checksum(a)).To(Equal(audit.Checksum(b)))
		})

		It("should not depend on details map insertion order", func() {
			first, _, err := service.Record(context.Background(), audit.LogDTO{
				EventType: audit.EventFileUpload,
				Action:    "uploaded",
				Details:   map[string]interface{}{"bucket": "uploads", "key": "a.txt", "size": float64(3)},
			}, nil, "10.0.0.1", "")
			Expect(err).NotTo(HaveOccurred())

			second, _, err := service.Record(context.Background(), audit.LogDTO{
				EventType: audit.EventFileUpload,
				Action:    "uploaded",
				Details:   map[string]interface{}{"size": float64(3), "key": "a.txt", "bucket": "uploads"},
			}, nil, "10.0.0.1", "")
			Expect(err).NotTo(HaveOccurred())

			Expect(first.Checksum).To(Equal(second.Checksum))
		})

		It("should change when the payload changes", func() {
			a := &audit.Entry{EventType: audit.EventLogout, Action: "logged out"}
			b := &audit.Entry{EventType: audit.EventLogout, Action: "logged out early"}
			Expect(audit.Checksum(a)).NotTo(Equal(audit.Checksum(b)))
		})
	})

	Describe("ClientIP", func() {
		It("should prefer CF-Connecting-IP", func() {
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("CF-Connecting-IP", "1.1.1.1")
			req.Header.Set("X-Real-IP", "2.2.2.2")
			req.Header.Set("X-Forwarded-For", "3.3.3.3, 4.4.4.4")
			Expect(audit.ClientIP(req)).To(Equal("1.1.1.1"))
		})

		It("should fall back to X-Real-IP", func() {
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("X-Real-IP", "2.2.2.2")
			Expect(audit.ClientIP(req)).To(Equal("2.2.2.2"))
		})

		It("should take the first X-Forwarded-For hop", func() {
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("X-Forwarded-For", "3.3.3.3, 4.4.4.4")
			Expect(audit.ClientIP(req)).To(Equal("3.3.3.3"))
		})

		It("should fall back to the socket address", func() {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = "192.0.2.7:54321"
			Expect(audit.ClientIP(req)).To(Equal("192.0.2.7"))
		})
	})
})
