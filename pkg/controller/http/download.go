package http

import (
	"encoding/json"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type downloadHandler struct {
	uc interfaces.DownloadUseCase
}

func (h *downloadHandler) listConfigs(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"configs": h.uc.Products(),
	})
}

func (h *downloadHandler) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cfg, err := parseDownloadRequest(r)
	if err != nil {
		handleError(ctx, w, err, err.Error())
		return
	}

	meta := model.JobMeta{
		ClientID: clientIDFrom(ctx),
		Username: usernameFrom(ctx),
	}
	job, err := h.uc.Submit(ctx, cfg, meta)
	if err != nil {
		handleError(ctx, w, err, "Failed to start download")
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]string{
		"task_id": job.ID.String(),
		"status":  string(job.Status),
	})
}

type downloadRequest struct {
	LoginID    string           `json:"login_id"`
	Password   string           `json:"password"`
	ConfigName string           `json:"config_name"`
	Regions    []model.Region   `json:"regions"`
	Variables  []model.Variable `json:"variables"`
	StartDate  string           `json:"start_date"`
	EndDate    string           `json:"end_date"`
}

func parseDownloadRequest(r *http.Request) (*model.DownloadConfig, error) {
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
		return parseDownloadJSON(r)
	}
	return parseDownloadForm(r)
}

func parseDownloadJSON(r *http.Request) (*model.DownloadConfig, error) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, goerr.Wrap(types.ErrValidation, "invalid JSON body", goerr.V("cause", err.Error()))
	}

	cfg := &model.DownloadConfig{
		LoginID:     req.LoginID,
		Password:    req.Password,
		ProductName: req.ConfigName,
		Regions:     req.Regions,
		Variables:   req.Variables,
	}
	if err := parseDates(cfg, req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseDownloadForm(r *http.Request) (*model.DownloadConfig, error) {
	cfg := &model.DownloadConfig{
		LoginID:     r.FormValue("login_id"),
		Password:    r.FormValue("password"),
		ProductName: r.FormValue("config_name"),
	}

	if err := json.Unmarshal([]byte(r.FormValue("regions")), &cfg.Regions); err != nil {
		return nil, goerr.Wrap(types.ErrValidation, "regions must be a JSON array", goerr.V("cause", err.Error()))
	}
	if err := json.Unmarshal([]byte(r.FormValue("variables")), &cfg.Variables); err != nil {
		return nil, goerr.Wrap(types.ErrValidation, "variables must be a JSON array", goerr.V("cause", err.Error()))
	}

	if err := parseDates(cfg, r.FormValue("start_date"), r.FormValue("end_date")); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseDates(cfg *model.DownloadConfig, start, end string) error {
	var err error
	if cfg.StartDate, err = time.Parse(time.DateOnly, start); err != nil {
		return goerr.Wrap(types.ErrValidation, "start_date must be YYYY-MM-DD")
	}
	if cfg.EndDate, err = time.Parse(time.DateOnly, end); err != nil {
		return goerr.Wrap(types.ErrValidation, "end_date must be YYYY-MM-DD")
	}
	return nil
}

type statusResponse struct {
	*model.JobStatus
	ElapsedTime string `json:"elapsed_time"`
}

func (h *downloadHandler) status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := types.JobID(chi.URLParam(r, "taskID"))

	job, err := h.uc.Status(ctx, id)
	if err != nil {
		msg := "Failed to load task status"
		if statusOf(err) == http.StatusNotFound {
			msg = "Task not found"
		}
		handleError(ctx, w, err, msg)
		return
	}

	writeJSON(ctx, w, http.StatusOK, &statusResponse{
		JobStatus:   job,
		ElapsedTime: model.FormatElapsed(job.Elapsed(time.Now())),
	})
}

func (h *downloadHandler) history(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	logs, err := h.uc.History(ctx, clientIDFrom(ctx))
	if err != nil {
		handleError(ctx, w, err, "Failed to load download history")
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{
		"history": logs,
	})
}
