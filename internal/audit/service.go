package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/commandos-health/commandos/internal/core/events"
)

// Window and threshold for the repeated-failed-login alert rule.
const (
	FailedLoginWindow    = 15 * time.Minute
	FailedLoginThreshold = 5
)

// AlertEventType is the bus topic alert notifiers subscribe on.
const AlertEventType = "audit.alert"

// Repository defines the data access methods for audit entries
type Repository interface {
	Insert(entry *Entry) error
	CountByEventSince(eventType, ipAddress string, since time.Time) (int64, error)
	ListRecent(limit, offset int) ([]*Entry, error)
}

// Service records audit entries and evaluates alert rules.
type Service struct {
	repo   Repository
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(repo Repository, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		bus:    bus,
		logger: logger,
	}
}

// Record validates, checksums, and inserts one audit entry, then evaluates
// the alert rules. Returns the stored entry and whether an alert fired.
// Alert delivery is best effort and never fails the caller.
func (s *Service) Record(ctx context.Context, dto LogDTO, userID *int64, ipAddress, userAgent string) (*Entry, bool, error) {
	if err := dto.Validate(); err != nil {
		return nil, false, err
	}

	severity := dto.Severity
	if severity == "" {
		severity = SeverityFor(dto.EventType)
	}

	details := ""
	if dto.Details != nil {
		raw, err := json.Marshal(dto.Details)
		if err != nil {
			s.logger.Warn("audit: failed to marshal details, dropping", "error", err)
		} else {
			details = string(raw)
		}
	}

	entry := &Entry{
		EventType:    dto.EventType,
		Action:       dto.Action,
		Severity:     severity,
		ResourceType: dto.ResourceType,
		ResourceID:   dto.ResourceID,
		UserID:       userID,
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
		Details:      details,
		CreatedAt:    time.Now(),
	}
	entry.Checksum = Checksum(entry)

	if err := s.repo.Insert(entry); err != nil {
		s.logger.Error("audit: failed to insert entry", "error", err, "event_type", dto.EventType)
		return nil, false, err
	}

	reason, triggered := s.evaluateAlert(entry)
	if triggered {
		s.publishAlert(ctx, entry, reason)
	}

	return entry, triggered, nil
}

// evaluateAlert applies the fixed rule set: CRITICAL severity, repeated
// failed logins from one address inside the trailing window, and any data
// export.
func (s *Service) evaluateAlert(entry *Entry) (string, bool) {
	if entry.Severity == SeverityCritical {
		return "critical severity event", true
	}

	if entry.EventType == EventDataExport {
		return "data export event", true
	}

	if entry.EventType == EventLoginFailed {
		since := entry.CreatedAt.Add(-FailedLoginWindow)
		count, err := s.repo.CountByEventSince(EventLoginFailed, entry.IPAddress, since)
		if err != nil {
			s.logger.Warn("audit: failed-login count query failed", "error", err)
			return "", false
		}
		if count >= FailedLoginThreshold {
			return "repeated failed logins", true
		}
	}

	return "", false
}

func (s *Service) publishAlert(ctx context.Context, entry *Entry, reason string) {
	// The server cancels the request context when the handler returns,
	// which would abort an in-flight webhook or email. Fan-out runs
	// detached from that cancellation; notifier timeouts bound delivery.
	ctx = context.WithoutCancel(ctx)

	alert := Alert{
		EntryID:   entry.ID,
		EventType: entry.EventType,
		Action:    entry.Action,
		Severity:  entry.Severity,
		Reason:    reason,
		IPAddress: entry.IPAddress,
		LoggedAt:  entry.CreatedAt,
	}

	event := events.BaseEvent{
		ID:        entry.Checksum[:16],
		Type:      AlertEventType,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"alert": alert,
		},
	}

	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("audit: alert publish failed", "error", err, "entry_id", entry.ID)
	}
}

// ListRecent returns recent entries for the compliance review page.
func (s *Service) ListRecent(limit, offset int) ([]*Entry, error) {
	return s.repo.ListRecent(limit, offset)
}

// Checksum computes the deterministic SHA-256 over the entry payload. The
// digest covers a canonical key-sorted JSON rendering, so it does not
// depend on struct field order or on the map iteration order of the
// original details payload.
func Checksum(entry *Entry) string {
	payload := map[string]interface{}{
		"event_type":    entry.EventType,
		"action":        entry.Action,
		"severity":      entry.Severity,
		"resource_type": entry.ResourceType,
		"resource_id":   entry.ResourceID,
		"ip_address":    entry.IPAddress,
		"details":       entry.Details,
	}
	if entry.UserID != nil {
		payload["user_id"] = *entry.UserID
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(payload[k])
		b.Write(kb)
		b.WriteByte(':')
		b.Write(vb)
	}
	b.WriteByte('}')

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// ClientIP extracts the caller address from proxy headers, most trusted
// first, falling back to the socket address.
func ClientIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host := r.RemoteAddr
	if idx := strings.LastIndexByte(host, ':'); idx >= 0 {
		host = host[:idx]
	}
	return host
}
