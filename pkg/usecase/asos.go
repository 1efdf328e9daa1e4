package usecase

import (
	"context"
	"encoding/csv"
	"io"
	"slices"
	"sort"
	"time"

	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

const regionKeyColumn = "region_key"

type asosUseCase struct {
	client       interfaces.ASOSClient
	stations     *model.StationMap
	stationDelay time.Duration
}

type ASOSOption func(*asosUseCase)

// WithStationDelay sets the wait between stations in Collect
func WithStationDelay(d time.Duration) ASOSOption {
	return func(uc *asosUseCase) {
		uc.stationDelay = d
	}
}

// NewASOS creates a new instance of ASOSUseCase
func NewASOS(client interfaces.ASOSClient, stations *model.StationMap, opts ...ASOSOption) interfaces.ASOSUseCase {
	uc := &asosUseCase{
		client:       client,
		stations:     stations,
		stationDelay: time.Second,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// ExportCSV writes the hourly observations of one station and returns the row count
func (uc *asosUseCase) ExportCSV(ctx context.Context, w io.Writer, req interfaces.ASOSRequest) (int, error) {
	if req.Start.After(req.End) {
		return 0, goerr.Wrap(types.ErrValidation, "start is after end")
	}

	station, ok := uc.stations.Resolve(req.StationKey)
	if !ok {
		return 0, goerr.Wrap(types.ErrValidation, "unknown station", goerr.V("station", req.StationKey))
	}

	records, err := uc.client.FetchHourly(ctx, req.ServiceKey, station.Code, req.Start, req.End)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to fetch ASOS data", goerr.V("station", station.Code))
	}
	if len(records) == 0 {
		return 0, goerr.Wrap(types.ErrNotFound, "no observations",
			goerr.V("station", station.Code),
			goerr.V("start", req.Start.Format(time.DateOnly)),
			goerr.V("end", req.End.Format(time.DateOnly)))
	}

	if err := writeASOSCSV(w, records, nil); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Collect exports several stations into one CSV with a region_key column
func (uc *asosUseCase) Collect(ctx context.Context, w io.Writer, req interfaces.ASOSCollectRequest) (int, error) {
	logger := ctxlog.From(ctx)

	if req.Start.After(req.End) {
		return 0, goerr.Wrap(types.ErrValidation, "start is after end")
	}

	var (
		all  []model.ASOSRecord
		keys []string
	)
	for i, key := range req.StationKeys {
		if slices.Contains(req.Exclude, key) {
			logger.Warn("Skip excluded station", "station", key)
			continue
		}
		station, ok := uc.stations.Resolve(key)
		if !ok {
			logger.Warn("Skip unknown station", "station", key)
			continue
		}

		if i > 0 && uc.stationDelay > 0 {
			select {
			case <-ctx.Done():
				return 0, goerr.Wrap(ctx.Err(), "collection interrupted")
			case <-time.After(uc.stationDelay):
			}
		}

		records, err := uc.client.FetchHourly(ctx, req.ServiceKey, station.Code, req.Start, req.End)
		if err != nil {
			return 0, goerr.Wrap(err, "failed to fetch ASOS data", goerr.V("station", station.Code))
		}
		logger.Info("Fetched station", "station", station.Name, "code", station.Code, "rows", len(records))

		all = append(all, records...)
		for range records {
			keys = append(keys, key)
		}
	}

	if len(all) == 0 {
		return 0, goerr.Wrap(types.ErrNotFound, "no observations for any station")
	}

	if err := writeASOSCSV(w, all, keys); err != nil {
		return 0, err
	}
	return len(all), nil
}

// writeASOSCSV writes records with renamed known columns first and the rest
// sorted. regionKeys, when set, adds a region_key column per record.
func writeASOSCSV(w io.Writer, records []model.ASOSRecord, regionKeys []string) error {
	known := make(map[string]bool, len(model.ASOSColumns))
	var fields, header []string
	for _, c := range model.ASOSColumns {
		known[c.Field] = true
		if hasField(records, c.Field) {
			fields = append(fields, c.Field)
			header = append(header, c.Column)
		}
	}

	extra := map[string]bool{}
	for _, r := range records {
		for k := range r {
			if !known[k] {
				extra[k] = true
			}
		}
	}
	rest := make([]string, 0, len(extra))
	for k := range extra {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	fields = append(fields, rest...)
	header = append(header, rest...)

	if regionKeys != nil {
		header = append(header, regionKeyColumn)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return goerr.Wrap(err, "failed to write CSV header")
	}
	for i, r := range records {
		row := make([]string, 0, len(header))
		for _, f := range fields {
			v := r[f]
			if f == "tm" {
				v = normalizeObservedTime(v)
			}
			row = append(row, v)
		}
		if regionKeys != nil {
			row = append(row, regionKeys[i])
		}
		if err := cw.Write(row); err != nil {
			return goerr.Wrap(err, "failed to write CSV row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return goerr.Wrap(err, "failed to flush CSV")
	}
	return nil
}

func hasField(records []model.ASOSRecord, field string) bool {
	for _, r := range records {
		if _, ok := r[field]; ok {
			return true
		}
	}
	return false
}

func normalizeObservedTime(v string) string {
	for _, layout := range []string{"2006-01-02 15:04", time.DateTime, "200601021504"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(time.DateTime)
		}
	}
	return v
}
