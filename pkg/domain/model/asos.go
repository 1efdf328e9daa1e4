package model

// ASOSRecord is one hourly observation as returned by the public data API.
// Values are kept as strings; the API sends empty strings for missing readings.
type ASOSRecord map[string]string

// ASOSColumns maps API field names to exported CSV column names in output order
var ASOSColumns = []struct {
	Field  string
	Column string
}{
	{"tm", "time"},
	{"stnId", "station_id"},
	{"stnNm", "station_name"},
	{"ta", "temperature"},
	{"ws", "wind_speed"},
	{"wd", "wind_direction"},
	{"hm", "humidity"},
	{"pv", "precipitation"},
	{"td", "dew_point"},
	{"pa", "pressure"},
	{"ps", "sea_pressure"},
	{"dsnw", "snow_depth"},
	{"ts", "ground_temp"},
}
