package shipping

import (
	"errors"
	"strings"
)

// ErrZoneNotFound is returned when no shipping zone row matches the
// destination country's canonical zone name.
var ErrZoneNotFound = errors.New("shipping zone not found")

var euCountries = map[string]struct{}{
	"DE": {}, "GERMANY": {},
	"FR": {}, "FRANCE": {},
	"IT": {}, "ITALY": {},
	"ES": {}, "SPAIN": {},
	"NL": {}, "NETHERLANDS": {},
	"BE": {}, "BELGIUM": {},
	"AT": {}, "AUSTRIA": {},
	"CZ": {}, "CZECHIA": {}, "CZECH REPUBLIC": {},
	"SK": {}, "SLOVAKIA": {},
	"PT": {}, "PORTUGAL": {},
	"SE": {}, "SWEDEN": {},
	"DK": {}, "DENMARK": {},
	"LT": {}, "LITHUANIA": {},
	"LV": {}, "LATVIA": {},
	"EE": {}, "ESTONIA": {},
	"HU": {}, "HUNGARY": {},
	"RO": {}, "ROMANIA": {},
	"IE": {}, "IRELAND": {},
	"FI": {}, "FINLAND": {},
	"GR": {}, "GREECE": {},
	"HR": {}, "CROATIA": {},
	"SI": {}, "SLOVENIA": {},
	"BG": {}, "BULGARIA": {},
	"LU": {}, "LUXEMBOURG": {},
}

var northAmericaCountries = map[string]struct{}{
	"US": {}, "USA": {}, "UNITED STATES": {},
	"CA": {}, "CANADA": {},
	"MX": {}, "MEXICO": {},
}

// ResolveZoneName classifies a destination country into one of the
// canonical zone names used by the shipping_zones table. The domestic
// zone takes precedence over the EU membership table.
func ResolveZoneName(country string) string {
	c := strings.ToUpper(strings.TrimSpace(country))
	switch c {
	case "PL", "POLAND", "POLSKA":
		return "Poland"
	}
	if _, ok := euCountries[c]; ok {
		return "EU"
	}
	if _, ok := northAmericaCountries[c]; ok {
		return "North America"
	}
	return "Rest of World"
}
