package asos

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

const (
	DefaultBaseURL = "http://apis.data.go.kr"
	hourlyPath     = "/1360000/AsosHourlyInfoService/getWthrDataList"

	resultOK     = "00"
	resultNoData = "03"
)

type client struct {
	baseURL    string
	serviceKey string
	pageSize   int
	maxRetries int
	backoff    time.Duration
	httpClient *http.Client
}

type Option func(*client)

func WithBaseURL(baseURL string) Option {
	return func(c *client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithServiceKey sets the default data.go.kr key used when a call passes none
func WithServiceKey(key string) Option {
	return func(c *client) {
		c.serviceKey = key
	}
}

// WithRetry sets attempts per page and the fixed wait between attempts
func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(c *client) {
		c.maxRetries = maxRetries
		c.backoff = backoff
	}
}

func WithPageSize(n int) Option {
	return func(c *client) {
		c.pageSize = n
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a client of the ASOS hourly observation API
func NewClient(opts ...Option) interfaces.ASOSClient {
	c := &client{
		baseURL:    DefaultBaseURL,
		pageSize:   999,
		maxRetries: 3,
		backoff:    time.Second,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiResponse struct {
	Response struct {
		Header struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			DataType string `json:"dataType"`
			// items is "" instead of an object when there are no rows
			Items      json.RawMessage `json:"items"`
			PageNo     int             `json:"pageNo"`
			NumOfRows  int             `json:"numOfRows"`
			TotalCount int             `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}

type apiItems struct {
	Item []map[string]any `json:"item"`
}

// FetchHourly collects every page of hourly observations of stationID. When a
// page still fails after all retries the station is reported as having no
// data and no error is returned.
func (c *client) FetchHourly(ctx context.Context, serviceKey, stationID string, start, end time.Time) ([]model.ASOSRecord, error) {
	logger := ctxlog.From(ctx)

	if serviceKey == "" {
		serviceKey = c.serviceKey
	}
	if serviceKey == "" {
		return nil, goerr.New("service key is not configured")
	}
	serviceKey = unescapeKey(serviceKey)

	var records []model.ASOSRecord
	for page := 1; ; page++ {
		resp, err := c.fetchPageWithRetry(ctx, serviceKey, stationID, start, end, page)
		if err != nil {
			if ctx.Err() != nil {
				return nil, goerr.Wrap(ctx.Err(), "ASOS fetch cancelled")
			}
			logger.Warn("Giving up ASOS station after retries",
				"station_id", stationID, "page", page, "error", err)
			return nil, nil
		}

		code := resp.Response.Header.ResultCode
		if code != resultOK {
			if code != resultNoData {
				logger.Warn("ASOS API returned error result",
					"station_id", stationID, "result_code", code, "result_msg", resp.Response.Header.ResultMsg)
			}
			break
		}

		items, err := decodeItems(resp.Response.Body.Items)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			break
		}
		records = append(records, items...)
		if len(items) < c.pageSize {
			break
		}
	}

	return records, nil
}

func (c *client) fetchPageWithRetry(ctx context.Context, serviceKey, stationID string, start, end time.Time, page int) (*apiResponse, error) {
	logger := ctxlog.From(ctx)

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		resp, err := c.fetchPage(ctx, serviceKey, stationID, start, end, page)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		logger.Debug("ASOS request failed", "station_id", stationID, "page", page, "attempt", attempt, "error", err)

		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff):
			}
		}
	}
	return nil, lastErr
}

func (c *client) fetchPage(ctx context.Context, serviceKey, stationID string, start, end time.Time, page int) (*apiResponse, error) {
	params := url.Values{
		"serviceKey": {serviceKey},
		"pageNo":     {strconv.Itoa(page)},
		"numOfRows":  {strconv.Itoa(c.pageSize)},
		"dataType":   {"JSON"},
		"dataCd":     {"ASOS"},
		"dateCd":     {"HR"},
		"startDt":    {start.Format("20060102")},
		"startHh":    {"00"},
		"endDt":      {end.Format("20060102")},
		"endHh":      {"23"},
		"stnIds":     {stationID},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+hourlyPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create ASOS request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(types.ErrTransientFetch, "ASOS request failed", goerr.V("cause", err.Error()))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, goerr.Wrap(types.ErrTransientFetch, "unexpected ASOS status", goerr.V("status", resp.StatusCode))
	}

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		// the API answers with an XML error document for invalid keys and overload
		return nil, goerr.Wrap(types.ErrTransientFetch, "failed to decode ASOS response", goerr.V("cause", err.Error()))
	}
	return &out, nil
}

func decodeItems(raw json.RawMessage) ([]model.ASOSRecord, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == `""` || trimmed == "null" {
		return nil, nil
	}

	var items apiItems
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, goerr.Wrap(err, "failed to decode ASOS items")
	}

	records := make([]model.ASOSRecord, 0, len(items.Item))
	for _, item := range items.Item {
		rec := make(model.ASOSRecord, len(item))
		for k, v := range item {
			rec[k] = stringify(v)
		}
		records = append(records, rec)
	}
	return records, nil
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// unescapeKey decodes a key that may have been URL-encoded up to twice, as
// the portal shows "encoding" keys that users paste already escaped.
func unescapeKey(key string) string {
	for range 2 {
		decoded, err := url.PathUnescape(key)
		if err != nil {
			break
		}
		key = decoded
	}
	return key
}
