package upload

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"

	"github.com/commandos-health/commandos/internal/auth"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// MockUploadService implements ServiceAPI and counts Store calls.
type MockUploadService struct {
	maxBytes   int64
	storeCalls int
}

func (m *MockUploadService) Store(ctx context.Context, userID int64, filename string, size int64, r io.Reader, pathPrefix, bucket string) (*Result, error) {
	m.storeCalls++
	return &Result{Key: filename}, nil
}

func (m *MockUploadService) MaxBytes() int64 {
	return m.maxBytes
}

var _ = Describe("Upload Handler", func() {
	var (
		mockService *MockUploadService
		handler     *Handler
	)

	multipartUpload := func(payload []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("file", "claims.csv")
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write(payload)
		Expect(err).NotTo(HaveOccurred())
		Expect(writer.Close()).To(Succeed())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/file-upload", &buf)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req = req.WithContext(auth.ContextWithUser(context.Background(), &auth.User{ID: 42}))

		rec := httptest.NewRecorder()
		handler.UploadFile(rec, req)
		return rec
	}

	BeforeEach(func() {
		mockService = &MockUploadService{maxBytes: 1024}
		handler = NewHandler(mockService)
	})

	It("should accept a small file", func() {
		rec := multipartUpload(bytes.Repeat([]byte("a"), 512))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(mockService.storeCalls).To(Equal(1))
	})

	It("should cut off an oversize body before the service sees it", func() {
		rec := multipartUpload(bytes.Repeat([]byte("a"), 256<<10))
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring(ErrFileTooLarge.Error()))
		Expect(mockService.storeCalls).To(BeZero())
	})

	It("should reject a non-multipart request", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/file-upload", bytes.NewReader([]byte("{}")))
		req.Header.Set("Content-Type", "application/json")
		req = req.WithContext(auth.ContextWithUser(context.Background(), &auth.User{ID: 42}))

		rec := httptest.NewRecorder()
		handler.UploadFile(rec, req)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})
})
