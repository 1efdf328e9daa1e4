package station

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Load reads an ASOS station list with "code" and "name" header columns
func Load(path string) (*model.StationMap, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(types.ErrNotFound, "station list not found", goerr.V("path", path))
		}
		return nil, goerr.Wrap(err, "failed to open station list", goerr.V("path", path))
	}
	defer f.Close()

	stations, err := Parse(f)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse station list", goerr.V("path", path))
	}
	return model.NewStationMap(stations), nil
}

// Parse reads station rows; extra columns are ignored
func Parse(r io.Reader) ([]model.Station, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read header")
	}

	codeIdx, nameIdx := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "code":
			codeIdx = i
		case "name":
			nameIdx = i
		}
	}
	if codeIdx < 0 || nameIdx < 0 {
		return nil, goerr.New("station list requires code and name columns", goerr.V("header", header))
	}

	var stations []model.Station
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read row")
		}
		if codeIdx >= len(rec) || nameIdx >= len(rec) {
			continue
		}
		code := strings.TrimSpace(rec[codeIdx])
		name := strings.TrimSpace(rec[nameIdx])
		if code == "" || name == "" {
			continue
		}
		stations = append(stations, model.Station{Code: code, Name: name})
	}
	return stations, nil
}
