package model

import (
	_ "embed"
	"slices"
	"time"

	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
)

// IntervalMode selects how a date range is split into portal requests
type IntervalMode string

const (
	IntervalMonthly IntervalMode = "monthly"
	IntervalRanged  IntervalMode = "range"
)

// Variable is one observed or forecast element of a product
type Variable struct {
	Code string `json:"code" toml:"code"`
	Name string `json:"name" toml:"name"`
}

// Product describes one portal dataset and how to request it
type Product struct {
	Name         string       `json:"name" toml:"name"`
	Description  string       `json:"description" toml:"description"`
	Code         string       `json:"-" toml:"code"`
	API          string       `json:"-" toml:"api"`
	Mode         IntervalMode `json:"-" toml:"mode"`
	PurposeCode  string       `json:"-" toml:"purpose_code"`
	RequestPath  string       `json:"-" toml:"request_path"`
	SelectType   string       `json:"-" toml:"select_type"`
	DefaultStart string       `json:"-" toml:"default_start"`
	DefaultEnd   string       `json:"-" toml:"default_end"`
	Legacy       bool         `json:"-" toml:"legacy"`
	Variables    []Variable   `json:"variables" toml:"variables"`
}

// DefaultRange returns the full period the portal serves for the product
func (p *Product) DefaultRange() (time.Time, time.Time, error) {
	start, err := time.Parse(time.DateOnly, p.DefaultStart)
	if err != nil {
		return time.Time{}, time.Time{}, goerr.Wrap(err, "invalid default start", goerr.V("product", p.Name))
	}
	end, err := time.Parse(time.DateOnly, p.DefaultEnd)
	if err != nil {
		return time.Time{}, time.Time{}, goerr.Wrap(err, "invalid default end", goerr.V("product", p.Name))
	}
	return start, end, nil
}

//go:embed catalog.toml
var catalogData []byte

// Catalog is the ordered set of known products
type Catalog struct {
	Products []Product `toml:"product"`
}

// LoadCatalog parses the built-in product catalog
func LoadCatalog() (*Catalog, error) {
	var c Catalog
	if err := toml.Unmarshal(catalogData, &c); err != nil {
		return nil, goerr.Wrap(err, "failed to parse product catalog")
	}

	for i := range c.Products {
		p := &c.Products[i]
		if p.Mode != IntervalMonthly && p.Mode != IntervalRanged {
			return nil, goerr.New("unknown interval mode", goerr.V("product", p.Name), goerr.V("mode", p.Mode))
		}
		if _, _, err := p.DefaultRange(); err != nil {
			return nil, err
		}
	}

	return &c, nil
}

// Lookup returns the product with the given name
func (c *Catalog) Lookup(name string) (*Product, error) {
	for i := range c.Products {
		if c.Products[i].Name == name {
			return &c.Products[i], nil
		}
	}
	return nil, goerr.Wrap(types.ErrNotFound, "unknown product", goerr.V("name", name))
}

// Select returns the named products in the given order, or every product
// including legacy ones when names is empty.
func (c *Catalog) Select(names []string) ([]Product, error) {
	if len(names) == 0 {
		return slices.Clone(c.Products), nil
	}

	out := make([]Product, 0, len(names))
	for _, name := range names {
		p, err := c.Lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

// Current returns products still offered to interactive users
func (c *Catalog) Current() []Product {
	var out []Product
	for _, p := range c.Products {
		if !p.Legacy {
			out = append(out, p)
		}
	}
	return out
}
