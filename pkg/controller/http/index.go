package http

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"

	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

//go:embed templates/index.html
var indexHTML string

type indexHandler struct {
	tmpl *template.Template
	uc   interfaces.DownloadUseCase
}

func newIndexHandler(uc interfaces.DownloadUseCase) (*indexHandler, error) {
	tmpl, err := template.New("index").Parse(indexHTML)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse index template")
	}
	return &indexHandler{tmpl: tmpl, uc: uc}, nil
}

func (h *indexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Version":  types.Version,
		"Products": h.uc.Products(),
	}

	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, data); err != nil {
		ctxlog.From(r.Context()).Error("Failed to render index", "error", err)
		writeError(w, goerr.New("failed to render page"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
