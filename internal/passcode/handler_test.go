package passcode_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/commandos-health/commandos/internal/audit"
	"github.com/commandos-health/commandos/internal/passcode"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPasscodeHandler(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Passcode Handler Suite")
}

// MockLimiter implements ratelimit.Limiter for testing
type MockLimiter struct {
	allow bool
}

func (m *MockLimiter) Allow(key string) bool {
	return m.allow
}

// MockRecorder implements passcode.AuditRecorder for testing
type MockRecorder struct {
	recorded []audit.LogDTO
}

func (m *MockRecorder) Record(ctx context.Context, dto audit.LogDTO, userID *int64, ipAddress, userAgent string) (*audit.Entry, bool, error) {
	m.recorded = append(m.recorded, dto)
	return &audit.Entry{}, false, nil
}

var _ = Describe("Passcode Handler", func() {
	var (
		limiter  *MockLimiter
		recorder *MockRecorder
		handler  *passcode.Handler
	)

	verify := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/verify-passcode", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Verify(rec, req)
		return rec
	}

	BeforeEach(func() {
		limiter = &MockLimiter{allow: true}
		recorder = &MockRecorder{}
		handler = passcode.NewHandler("open-sesame", limiter, recorder)
	})

	Context("with the correct passcode", func() {
		It("should report valid", func() {
			rec := verify(`{"passcode":"open-sesame"}`)

			Expect(rec.Code).To(Equal(http.StatusOK))
			var resp map[string]interface{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["valid"]).To(BeTrue())
			Expect(recorder.recorded).To(BeEmpty())
		})
	})

	Context("with a wrong passcode", func() {
		It("should report invalid with 200 and audit the failure", func() {
			rec := verify(`{"passcode":"guess"}`)

			Expect(rec.Code).To(Equal(http.StatusOK))
			var resp map[string]interface{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["valid"]).To(BeFalse())

			Expect(recorder.recorded).To(HaveLen(1))
			Expect(recorder.recorded[0].EventType).To(Equal(audit.EventPasscodeFailed))
		})
	})

	Context("when throttled", func() {
		BeforeEach(func() {
			limiter.allow = false
		})

		It("should return 429 without checking the passcode", func() {
			rec := verify(`{"passcode":"open-sesame"}`)
			Expect(rec.Code).To(Equal(http.StatusTooManyRequests))
		})
	})

	Context("when no passcode is configured", func() {
		BeforeEach(func() {
			handler = passcode.NewHandler("", limiter, recorder)
		})

		It("should return 500", func() {
			rec := verify(`{"passcode":"anything"}`)
			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Context("with a malformed body", func() {
		It("should return 400", func() {
			rec := verify(`{`)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
