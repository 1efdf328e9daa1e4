package http

import (
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
)

type artifactHandler struct {
	uc interfaces.ArtifactUseCase
}

func (h *artifactHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	files, err := h.uc.List(ctx)
	if err != nil {
		handleError(ctx, w, err, "Failed to list files")
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{"files": files})
}

func (h *artifactHandler) serve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	f, err := h.uc.Open(ctx, chi.URLParam(r, "*"))
	if err != nil {
		handleError(ctx, w, err, "File not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		handleError(ctx, w, err, "File not found")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", attachment(filepath.Base(f.Name())))
	http.ServeContent(w, r, "", info.ModTime(), f)
}

// attachment builds a Content-Disposition value with an RFC 5987 UTF-8 name
func attachment(name string) string {
	return fmt.Sprintf(`attachment; filename*=UTF-8''%s`, url.PathEscape(name))
}
