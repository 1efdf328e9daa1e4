package http

import (
	"net/http"

	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
)

type regionHandler struct {
	uc interfaces.RegionUseCase
}

func (h *regionHandler) listRegions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	regions, err := h.uc.SearchRegions(ctx, r.URL.Query().Get("search"))
	if err != nil {
		handleError(ctx, w, err, "Failed to search regions")
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{"regions": regions})
}

func (h *regionHandler) listStations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stations, err := h.uc.SearchStations(ctx, r.URL.Query().Get("search"))
	if err != nil {
		handleError(ctx, w, err, "Failed to search stations")
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{"stations": stations})
}
