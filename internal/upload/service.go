package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/commandos-health/commandos/internal/audit"
)

// AuditRecorder records one row per stored upload.
type AuditRecorder interface {
	Record(ctx context.Context, dto audit.LogDTO, userID *int64, ipAddress, userAgent string) (*audit.Entry, bool, error)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Service stores uploaded files. Keys embed a millisecond timestamp and
// the uploader's id, so two uploads of the same filename never collide
// and no retry loop is needed.
type Service struct {
	store         BlobStore
	recorder      AuditRecorder
	defaultBucket string
	maxBytes      int64
	logger        *slog.Logger
	now           func() time.Time
}

func NewService(store BlobStore, recorder AuditRecorder, defaultBucket string, maxBytes int64, logger *slog.Logger) *Service {
	return &Service{
		store:         store,
		recorder:      recorder,
		defaultBucket: defaultBucket,
		maxBytes:      maxBytes,
		logger:        logger,
		now:           time.Now,
	}
}

// MaxBytes is the configured upload size ceiling.
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Store validates the size ceiling, builds the unique key, and writes the
// blob. The size check happens before the storage backend is touched.
func (s *Service) Store(ctx context.Context, userID int64, filename string, size int64, r io.Reader, pathPrefix, bucket string) (*Result, error) {
	if size <= 0 {
		return nil, ErrEmptyFile
	}
	if size > s.maxBytes {
		s.logger.Warn("upload rejected: file too large",
			"user_id", userID, "size", size, "max", s.maxBytes)
		return nil, ErrFileTooLarge
	}

	if bucket == "" {
		bucket = s.defaultBucket
	}

	key := s.buildKey(userID, filename, pathPrefix)

	if err := s.store.Put(bucket, key, io.LimitReader(r, s.maxBytes)); err != nil {
		s.logger.Error("upload storage write failed", "error", err, "key", key)
		return nil, err
	}

	_, _, auditErr := s.recorder.Record(ctx, audit.LogDTO{
		EventType:    audit.EventFileUpload,
		Action:       fmt.Sprintf("uploaded %s (%d bytes)", filename, size),
		ResourceType: "file",
		ResourceID:   key,
		Details: map[string]interface{}{
			"bucket": bucket,
			"key":    key,
			"size":   size,
		},
	}, &userID, "", "")
	if auditErr != nil {
		s.logger.Warn("upload audit row failed", "error", auditErr)
	}

	s.logger.Info("upload stored", "user_id", userID, "bucket", bucket, "key", key, "size", size)

	return &Result{
		Success:   true,
		Key:       key,
		PublicURL: s.store.PublicURL(bucket, key),
		Path:      bucket + "/" + key,
	}, nil
}

// buildKey sanitizes the original filename and prefixes it with a
// timestamp and the uploader id. The always-increasing timestamp plus the
// user id make the key unique without a collision check.
func (s *Service) buildKey(userID int64, filename, pathPrefix string) string {
	safe := unsafeChars.ReplaceAllString(filename, "_")
	if safe == "" {
		safe = "file"
	}

	key := fmt.Sprintf("%d_%d_%s", s.now().UnixMilli(), userID, safe)

	prefix := strings.Trim(pathPrefix, "/")
	prefix = strings.ReplaceAll(prefix, "..", "")
	if prefix != "" {
		key = prefix + "/" + key
	}
	return key
}
