package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

const asosDateLayout = "20060102"

type asosHandler struct {
	uc interfaces.ASOSUseCase
}

func (h *asosHandler) download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	start, errStart := time.Parse(asosDateLayout, q.Get("start"))
	end, errEnd := time.Parse(asosDateLayout, q.Get("end"))
	if errStart != nil || errEnd != nil {
		writeError(w, goerr.New("start and end must be YYYYMMDD"), http.StatusBadRequest)
		return
	}

	key := q.Get("stnIds")
	if key == "" {
		writeError(w, goerr.New("stnIds is required"), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	_, err := h.uc.ExportCSV(ctx, &buf, interfaces.ASOSRequest{
		StationKey: key,
		Start:      start,
		End:        end,
		ServiceKey: q.Get("service_key"),
	})
	if err != nil {
		handleError(ctx, w, err, asosErrorMessage(err))
		return
	}

	filename := fmt.Sprintf("ASOS_%s_%s_%s.csv", key, q.Get("start"), q.Get("end"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func asosErrorMessage(err error) string {
	switch statusOf(err) {
	case http.StatusBadRequest:
		return "Unknown station or invalid range"
	case http.StatusNotFound:
		return "No data for the requested period"
	case http.StatusBadGateway:
		return "ASOS API request failed"
	}
	return "ASOS export failed"
}
