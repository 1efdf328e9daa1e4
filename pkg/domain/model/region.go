package model

import (
	"sort"
	"strings"
)

// Region is one row of the administrative hierarchy mapped to a portal region code
type Region struct {
	Level1 string `json:"level1"`
	Level2 string `json:"level2"`
	Level3 string `json:"level3"`
	Code   string `json:"code"`
}

func (r Region) levels() []string {
	return []string{r.Level1, r.Level2, r.Level3}
}

// Match ranks how well term matches any of fields: 0 exact, 1 prefix, 2 substring.
// ok is false when no field contains term. Comparison is case-insensitive.
func Match(term string, fields ...string) (rank int, ok bool) {
	term = strings.ToLower(term)
	rank = 3
	for _, f := range fields {
		f = strings.ToLower(f)
		switch {
		case f == term:
			return 0, true
		case strings.HasPrefix(f, term):
			rank = min(rank, 1)
		case strings.Contains(f, term):
			rank = min(rank, 2)
		}
	}
	return rank, rank < 3
}

// SearchRegions returns regions matching term, exact matches first, then prefix
// matches, then substring matches. An empty term returns every region.
func SearchRegions(regions []Region, term string) []Region {
	term = strings.TrimSpace(term)
	type ranked struct {
		rank int
		r    Region
	}

	var hits []ranked
	for _, r := range regions {
		if term == "" {
			hits = append(hits, ranked{r: r})
			continue
		}
		if rank, ok := Match(term, r.levels()...); ok {
			hits = append(hits, ranked{rank: rank, r: r})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].rank != hits[j].rank {
			return hits[i].rank < hits[j].rank
		}
		a, b := hits[i].r, hits[j].r
		if a.Level1 != b.Level1 {
			return a.Level1 < b.Level1
		}
		if a.Level2 != b.Level2 {
			return a.Level2 < b.Level2
		}
		return a.Level3 < b.Level3
	})

	out := make([]Region, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.r)
	}
	return out
}

// Station is an ASOS observation station
type Station struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// StationMap resolves ASOS stations by name or code
type StationMap struct {
	stations   []Station
	codeToName map[string]string
	nameToCode map[string]string
}

func NewStationMap(stations []Station) *StationMap {
	m := &StationMap{
		codeToName: make(map[string]string, len(stations)),
		nameToCode: make(map[string]string, len(stations)),
	}
	for _, s := range stations {
		if _, dup := m.codeToName[s.Code]; dup {
			continue
		}
		m.stations = append(m.stations, s)
		m.codeToName[s.Code] = s.Name
		m.nameToCode[s.Name] = s.Code
	}
	return m
}

// Resolve accepts a station name or code and returns the station
func (m *StationMap) Resolve(key string) (Station, bool) {
	key = strings.TrimSpace(key)
	if code, ok := m.nameToCode[key]; ok {
		return Station{Code: code, Name: key}, true
	}
	if name, ok := m.codeToName[key]; ok {
		return Station{Code: key, Name: name}, true
	}
	return Station{}, false
}

// Stations returns all stations in load order
func (m *StationMap) Stations() []Station {
	out := make([]Station, len(m.stations))
	copy(out, m.stations)
	return out
}

// Search ranks stations by name or code, like SearchRegions.
func (m *StationMap) Search(term string) []Station {
	term = strings.TrimSpace(term)
	if term == "" {
		return m.Stations()
	}

	type ranked struct {
		rank int
		s    Station
	}
	var hits []ranked
	for _, s := range m.stations {
		if rank, ok := Match(term, s.Name, s.Code); ok {
			hits = append(hits, ranked{rank: rank, s: s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].rank < hits[j].rank })

	out := make([]Station, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.s)
	}
	return out
}
