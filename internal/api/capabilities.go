package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/blockenergy-core/internal/capability"
	"github.com/nerrad567/blockenergy-core/internal/energy"
	"github.com/nerrad567/blockenergy-core/internal/world"
)

// CapabilityResponse is returned by GET /capabilities/{world}/{x}/{y}/{z}.
type CapabilityResponse struct {
	Location world.Location    `json:"location"`
	Type     capability.TypeID `json:"type"`
	Cached   bool              `json:"cached"`
	Record   energy.Record     `json:"record"`
}

// handleGetCapability inspects one location through the standard registry.
// Inspecting materializes the capability if it is only in the store.
func (s *Server) handleGetCapability(w http.ResponseWriter, r *http.Request) {
	loc, err := locationParam(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	_, cached := s.banks.Cached(loc)
	bank, found, err := s.banks.Get(r.Context(), loc)
	if err != nil {
		s.logger.Error("inspecting capability", "location", loc.String(), "error", err)
		writeInternalError(w, "failed to load capability")
		return
	}
	if !found {
		writeNotFound(w, "no energy capability at "+loc.String())
		return
	}

	writeJSON(w, http.StatusOK, CapabilityResponse{
		Location: loc,
		Type:     s.banks.TypeID(),
		Cached:   cached,
		Record:   bank.Serialize(),
	})
}

func locationParam(r *http.Request) (world.Location, error) {
	w := chi.URLParam(r, "world")
	if w == "" {
		return world.Location{}, world.ErrInvalidLocation
	}

	var xyz [3]int
	for i, name := range []string{"x", "y", "z"} {
		n, err := strconv.Atoi(chi.URLParam(r, name))
		if err != nil {
			return world.Location{}, fmt.Errorf("invalid %s coordinate %q", name, chi.URLParam(r, name))
		}
		xyz[i] = n
	}
	return world.At(world.ID(w), xyz[0], xyz[1], xyz[2]), nil
}
