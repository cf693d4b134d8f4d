package export_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/commandos-health/commandos/internal/auth"
	"github.com/commandos-health/commandos/internal/export"
	"github.com/commandos-health/commandos/internal/roles"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Export Handler", func() {
	var handler *export.Handler

	doExport := func(body string, user *auth.User) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/export-data", strings.NewReader(body))
		if user != nil {
			req = req.WithContext(auth.ContextWithUser(context.Background(), user))
		}
		rec := httptest.NewRecorder()
		handler.ExportData(rec, req)
		return rec
	}

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		handler = export.NewHandler(export.NewService(&MockRecorder{}, logger))
	})

	It("should return the file with a download disposition", func() {
		user := &auth.User{ID: 1, Role: roles.RoleCEO}
		rec := doExport(`{"format":"csv","data":[{"name":"Acme"}],"filename":"members.csv"}`, user)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(ContainSubstring("text/csv"))
		Expect(rec.Header().Get("Content-Disposition")).To(ContainSubstring("members.csv"))
	})

	It("should return 400 for an empty dataset", func() {
		user := &auth.User{ID: 1, Role: roles.RoleAdmin}
		rec := doExport(`{"format":"csv","data":[]}`, user)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should return 400 for an unknown format", func() {
		user := &auth.User{ID: 1, Role: roles.RoleAdmin}
		rec := doExport(`{"format":"pdf","data":[{"a":"b"}]}`, user)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should return 401 without an authenticated user", func() {
		rec := doExport(`{"format":"csv","data":[{"a":"b"}]}`, nil)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})
})
