package http

import (
	"net/http"

	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
)

// handleHealth handles health check requests
func handleHealth(w http.ResponseWriter, r *http.Request) {
	status := &model.HealthStatus{
		Status:  "healthy",
		Service: "kmafetch",
		Version: types.Version,
	}
	writeJSON(r.Context(), w, http.StatusOK, status)
}
