package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/zstd"

	"github.com/nerrad567/blockenergy-core/internal/audit"
	"github.com/nerrad567/blockenergy-core/internal/blockdata"
	"github.com/nerrad567/blockenergy-core/internal/energy"
	"github.com/nerrad567/blockenergy-core/internal/world"
)

// SaveResponse is returned by POST /worlds/{world}/save.
type SaveResponse struct {
	World   world.ID `json:"world"`
	Written int      `json:"written"`
}

// ExportLine is one line of a world export.
type ExportLine struct {
	Location world.Location `json:"location"`
	Record   energy.Record  `json:"record"`
}

// handleSaveWorld flushes every cached capability in the world, as a host
// save would.
func (s *Server) handleSaveWorld(w http.ResponseWriter, r *http.Request) {
	id := world.ID(chi.URLParam(r, "world"))

	written, err := s.regs.OnWorldSaved(r.Context(), id)
	s.NotifyFlush(string(id), "api", written, err)
	if err != nil {
		s.logger.Error("manual world save failed", "world", id, "written", written, "error", err)
		writeInternalError(w, "world save failed")
		return
	}

	s.logger.Info("manual world save", "world", id, "written", written, "subject", subject(r))
	s.auditLog(audit.ActionSave, id, subject(r), map[string]any{"written": written})
	writeJSON(w, http.StatusOK, SaveResponse{World: id, Written: written})
}

// handleExportWorld streams the durable energy entries of one world as
// zstd-compressed JSON lines. Cached values that have not been flushed are
// not included.
func (s *Server) handleExportWorld(w http.ResponseWriter, r *http.Request) {
	id := world.ID(chi.URLParam(r, "world"))
	codec := s.regs.Codec()

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		writeInternalError(w, "failed to start export")
		return
	}

	w.Header().Set("Content-Type", "application/zstd")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(id)+".jsonl.zst"))
	w.WriteHeader(http.StatusOK)

	lines := json.NewEncoder(enc)
	var exported, skipped int
	err = s.regs.Store().Each(r.Context(), id, codec.StoredKey, func(loc world.Location, c *blockdata.Container) error {
		rec, err := codec.FromContainer(c)
		if err != nil {
			skipped++
			s.logger.Warn("skipping undecodable entry", "location", loc.String(), "error", err)
			return nil
		}
		exported++
		return lines.Encode(ExportLine{Location: loc, Record: rec})
	})
	if cerr := enc.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// Status is already sent; the client sees a truncated stream.
		s.logger.Error("world export aborted", "world", id, "exported", exported, "error", err)
		return
	}

	s.logger.Info("world exported", "world", id, "exported", exported, "skipped", skipped, "subject", subject(r))
	s.auditLog(audit.ActionExport, id, subject(r), map[string]any{"exported": exported, "skipped": skipped})
}
