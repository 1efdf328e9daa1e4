package config

import (
	"context"
	"errors"

	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/kmafetch/kmafetch/pkg/infra/sqlite"
	"github.com/kmafetch/kmafetch/pkg/infra/station"
	"github.com/m-mizutani/ctxlog"
	"github.com/urfave/cli/v3"
)

// Storage holds local file and database locations
type Storage struct {
	DownloadDir string
	DBPath      string
	RegionSeed  string
	StationCSV  string
}

func (c *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "download-dir",
			Usage:       "Root directory of downloaded CSV files",
			Value:       "downloads",
			Destination: &c.DownloadDir,
			Sources:     cli.EnvVars("KMA_DOWNLOAD_DIR"),
		},
		&cli.StringFlag{
			Name:        "db-path",
			Usage:       "SQLite database file",
			Value:       "data/kma.db",
			Destination: &c.DBPath,
			Sources:     cli.EnvVars("KMA_DB_PATH", "DB_PATH"),
		},
		&cli.StringFlag{
			Name:        "region-seed",
			Usage:       "CSV used to seed the region table on first start",
			Value:       "data/regions.csv",
			Destination: &c.RegionSeed,
			Sources:     cli.EnvVars("KMA_REGION_SEED"),
		},
		&cli.StringFlag{
			Name:        "station-csv",
			Usage:       "ASOS station map CSV (code,name)",
			Value:       "data/asos_stations.csv",
			Destination: &c.StationCSV,
			Sources:     cli.EnvVars("KMA_STATION_CSV"),
		},
	}
}

// OpenDB opens the SQLite database, seeding regions when needed
func (c *Storage) OpenDB(ctx context.Context) (*sqlite.DB, error) {
	return sqlite.Open(ctx, c.DBPath, c.RegionSeed)
}

// Stations loads the station map. A missing file yields an empty map when
// optional is true.
func (c *Storage) Stations(ctx context.Context, optional bool) (*model.StationMap, error) {
	stations, err := station.Load(c.StationCSV)
	if err != nil {
		if optional && errors.Is(err, types.ErrNotFound) {
			ctxlog.From(ctx).Warn("Station map not found, ASOS endpoints will reject every station",
				"path", c.StationCSV)
			return model.NewStationMap(nil), nil
		}
		return nil, err
	}
	return stations, nil
}
