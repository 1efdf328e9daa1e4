package usecase

import (
	"context"

	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

type regionUseCase struct {
	regions  []model.Region
	stations *model.StationMap
}

// NewRegion loads the region table once. Searches see that snapshot.
func NewRegion(ctx context.Context, repo interfaces.RegionRepository, stations *model.StationMap) (interfaces.RegionUseCase, error) {
	regions, err := repo.ListRegions(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load regions")
	}
	if stations == nil {
		stations = model.NewStationMap(nil)
	}

	ctxlog.From(ctx).Info("Region directory loaded",
		"regions", len(regions),
		"stations", len(stations.Stations()),
	)

	return &regionUseCase{regions: regions, stations: stations}, nil
}

func (uc *regionUseCase) SearchRegions(ctx context.Context, term string) ([]model.Region, error) {
	return model.SearchRegions(uc.regions, term), nil
}

func (uc *regionUseCase) SearchStations(ctx context.Context, term string) ([]model.Station, error) {
	return uc.stations.Search(term), nil
}
