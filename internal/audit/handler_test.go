package audit_test

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/commandos-health/commandos/internal/audit"
	"github.com/commandos-health/commandos/internal/core/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Audit Handler", func() {
	var (
		mockRepo *MockRepository
		handler  *audit.Handler
	)

	logEvent := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/security-audit", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.LogEvent(rec, req)
		return rec
	}

	BeforeEach(func() {
		mockRepo = NewMockRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		handler = audit.NewHandler(audit.NewService(mockRepo, events.NewEventBus(logger), logger))
	})

	It("should record a valid event", func() {
		rec := logEvent(`{"event_type":"LOGIN_FAILED","action":"login attempt failed"}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"success":true`))
	})

	It("should return 400 when the event type is missing", func() {
		rec := logEvent(`{"action":"login attempt failed"}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring("event_type is required"))
	})

	It("should return 400 for a malformed body", func() {
		rec := logEvent(`{not json`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should return 500 when the insert fails", func() {
		mockRepo.shouldFail = true
		mockRepo.failError = errors.New("connection refused")

		rec := logEvent(`{"event_type":"LOGIN_FAILED","action":"login attempt failed"}`)
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Body.String()).NotTo(ContainSubstring("connection refused"))
	})
})
