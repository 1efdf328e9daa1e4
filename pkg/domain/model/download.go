package model

import (
	"time"

	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// DownloadConfig is the immutable request of one download job
type DownloadConfig struct {
	LoginID     string     `json:"login_id"`
	Password    string     `json:"password" masq:"secret"`
	ProductName string     `json:"config_name"`
	Regions     []Region   `json:"regions"`
	Variables   []Variable `json:"variables"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`
}

// Validate checks fields that do not need the catalog
func (x *DownloadConfig) Validate() error {
	switch {
	case x.LoginID == "" || x.Password == "":
		return goerr.Wrap(types.ErrValidation, "login_id and password are required")
	case x.ProductName == "":
		return goerr.Wrap(types.ErrValidation, "config_name is required")
	case len(x.Regions) == 0:
		return goerr.Wrap(types.ErrValidation, "at least one region is required")
	case len(x.Variables) == 0:
		return goerr.Wrap(types.ErrValidation, "at least one variable is required")
	case x.StartDate.IsZero() || x.EndDate.IsZero():
		return goerr.Wrap(types.ErrValidation, "start_date and end_date are required")
	case x.StartDate.After(x.EndDate):
		return goerr.Wrap(types.ErrValidation, "start_date is after end_date",
			goerr.V("start", x.StartDate.Format(time.DateOnly)),
			goerr.V("end", x.EndDate.Format(time.DateOnly)))
	}

	for _, r := range x.Regions {
		if r.Level3 == "" || r.Code == "" {
			return goerr.Wrap(types.ErrValidation, "region requires level3 and code", goerr.V("region", r))
		}
	}
	for _, v := range x.Variables {
		if v.Code == "" || v.Name == "" {
			return goerr.Wrap(types.ErrValidation, "variable requires code and name", goerr.V("variable", v))
		}
	}
	return nil
}

// JobMeta carries who submitted a job
type JobMeta struct {
	ClientID types.ClientID
	Username string
}
