package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/nerrad567/blockenergy-core/internal/audit"
	"github.com/nerrad567/blockenergy-core/internal/world"
)

// auditChanSize bounds queued audit entries. Entries beyond it are dropped
// so requests never wait on SQLite.
const auditChanSize = 256

// auditLog queues an entry for the background writer. It is a no-op when no
// repository is configured.
func (s *Server) auditLog(action string, w world.ID, subject string, details map[string]any) {
	if s.auditRepo == nil {
		return
	}

	entry := &audit.Entry{
		Action:  action,
		World:   w,
		Subject: subject,
		Source:  "api",
		Details: details,
	}

	select {
	case s.auditCh <- entry:
	default:
		s.logger.Warn("audit channel full, dropping entry", "action", action, "world", w)
	}
}

// drainAuditLog writes queued entries one at a time until ctx is done, then
// writes whatever is still queued.
func (s *Server) drainAuditLog(ctx context.Context) {
	for {
		select {
		case entry := <-s.auditCh:
			s.writeAudit(entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-s.auditCh:
					s.writeAudit(entry)
				default:
					return
				}
			}
		}
	}
}

func (s *Server) writeAudit(entry *audit.Entry) {
	if err := s.auditRepo.Create(context.Background(), entry); err != nil {
		s.logger.Error("audit write failed", "action", entry.Action, "world", entry.World, "error", err)
	}
}

// handleListAuditLogs returns a page of audit entries.
//
// Query parameters: action, world, subject, limit (default 50, max 200) and
// offset.
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeInternalError(w, "audit logging not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:  q.Get("action"),
		World:   world.ID(q.Get("world")),
		Subject: q.Get("subject"),
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
		s.logger.Error("failed to list audit entries", "error", err)
		writeInternalError(w, "failed to list audit entries")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
