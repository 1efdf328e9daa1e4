package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kmafetch/kmafetch/pkg/cli/config"
	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/kmafetch/kmafetch/pkg/usecase"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const utf8BOM = "\ufeff"

func cmdASOS() *cli.Command {
	var (
		storageCfg config.Storage
		asosCfg    config.ASOS
		stations   []string
		exclude    []string
		start      string
		end        string
		output     string
	)

	var flags []cli.Flag
	flags = append(flags, storageCfg.Flags()...)
	flags = append(flags, asosCfg.Flags()...)
	flags = append(flags,
		&cli.StringSliceFlag{
			Name:        "station",
			Usage:       "Station name or code (repeatable). Defaults to every station in the map",
			Destination: &stations,
		},
		&cli.StringSliceFlag{
			Name:        "exclude",
			Usage:       "Station name or code to skip (repeatable)",
			Destination: &exclude,
		},
		&cli.StringFlag{
			Name:        "start",
			Usage:       "Start date (YYYYMMDD)",
			Required:    true,
			Destination: &start,
		},
		&cli.StringFlag{
			Name:        "end",
			Usage:       "End date (YYYYMMDD)",
			Required:    true,
			Destination: &end,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Output CSV path. Defaults to ASOS_<start>_<end>.csv",
			Destination: &output,
		},
	)

	return &cli.Command{
		Name:  "asos",
		Usage: "Collect hourly ASOS observations of several stations into one CSV",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			startDate, err := time.Parse("20060102", start)
			if err != nil {
				return goerr.Wrap(types.ErrValidation, "start must be YYYYMMDD", goerr.V("start", start))
			}
			endDate, err := time.Parse("20060102", end)
			if err != nil {
				return goerr.Wrap(types.ErrValidation, "end must be YYYYMMDD", goerr.V("end", end))
			}

			stationMap, err := storageCfg.Stations(ctx, false)
			if err != nil {
				return err
			}
			if len(stations) == 0 {
				for _, s := range stationMap.Stations() {
					stations = append(stations, s.Name)
				}
			}

			if output == "" {
				output = fmt.Sprintf("ASOS_%s_%s.csv", start, end)
			}
			f, err := os.Create(output)
			if err != nil {
				return goerr.Wrap(err, "failed to create output file", goerr.V("path", output))
			}
			defer f.Close()

			// BOM so spreadsheet tools detect UTF-8
			if _, err := f.WriteString(utf8BOM); err != nil {
				return goerr.Wrap(err, "failed to write output file", goerr.V("path", output))
			}

			uc := usecase.NewASOS(asosCfg.Client(), stationMap)
			n, err := uc.Collect(ctx, f, interfaces.ASOSCollectRequest{
				StationKeys: stations,
				Exclude:     exclude,
				Start:       startDate,
				End:         endDate,
			})
			if err != nil {
				return err
			}

			logger.Info("ASOS collection finished", "rows", n, "output", output)
			return nil
		},
	}
}
