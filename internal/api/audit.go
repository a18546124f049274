package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/nerrad567/oscleash/internal/audit"
)

// auditChanSize is the buffer size for the async audit log channel.
// Entries beyond this are dropped to avoid back-pressure on requests.
const auditChanSize = 64

// auditLog enqueues an audit entry for asynchronous write.
// If the channel is full the entry is dropped and a warning is logged.
func (s *Server) auditLog(action string, details map[string]any) {
	if s.auditCh == nil {
		return
	}

	entry := &audit.AuditLog{
		Action:  action,
		Source:  audit.SourceAPI,
		Details: details,
	}

	select {
	case s.auditCh <- entry:
	default:
		s.logger.Warn("audit log channel full, dropping entry", "action", action)
	}
}

// drainAuditLog writes queued entries serially until ctx is cancelled, then
// flushes whatever is still queued.
func (s *Server) drainAuditLog(ctx context.Context) {
	write := func(entry *audit.AuditLog) {
		if err := s.auditRepo.Create(context.WithoutCancel(ctx), entry); err != nil {
			s.logger.Error("audit log write failed", "action", entry.Action, "error", err)
		}
	}

	for {
		select {
		case entry := <-s.auditCh:
			write(entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-s.auditCh:
					write(entry)
				default:
					return
				}
			}
		}
	}
}

// handleListAuditLogs returns paginated audit log entries with optional filters.
//
// Query parameters:
//   - action: filter by action (client_connected, client_disconnected, settings_updated, error)
//   - peer: filter by peer address
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeNotFound(w, "audit logging not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action: q.Get("action"),
		Peer:   q.Get("peer"),
	}

	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit logs", "error", err)
		writeInternalError(w, "failed to list audit logs")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
