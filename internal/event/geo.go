package event

import (
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Geo attributes arrive in one of several containers depending on which
// tracker version produced the record: a location/geo object on the record
// itself, or one nested under context or properties. Containers are probed
// in this order and the first container holding a value for a given field
// wins for that field.
var (
	geoContainerKeys = []string{"location", "geo"}
	geoNestKeys      = []string{"context", "properties"}

	countryKeys = []string{"country", "countryCode", "country_code", "cc"}
	cityKeys    = []string{"city"}
	regionKeys  = []string{"region", "state", "province"}
)

// resolveGeo extracts country, city and region. A 2-letter country code is
// expanded to its English display name; unknown codes and full names pass
// through unchanged.
func resolveGeo(rec map[string]any) (country, city, region string) {
	containers := geoContainers(rec)

	country = firstIn(containers, countryKeys)
	city = firstIn(containers, cityKeys)
	region = firstIn(containers, regionKeys)

	if isCountryCode(country) {
		country = countryName(country)
	}
	return country, city, region
}

// geoContainers collects candidate location objects in probe order.
func geoContainers(rec map[string]any) []map[string]any {
	var containers []map[string]any
	appendFrom := func(obj map[string]any) {
		for _, key := range geoContainerKeys {
			if c, ok := obj[key].(map[string]any); ok {
				containers = append(containers, c)
			}
		}
	}

	appendFrom(rec)
	for _, nest := range geoNestKeys {
		if obj, ok := rec[nest].(map[string]any); ok {
			appendFrom(obj)
		}
	}
	return containers
}

func firstIn(containers []map[string]any, keys []string) string {
	for _, c := range containers {
		if s := stringField(c, keys); s != "" {
			return s
		}
	}
	return ""
}

func isCountryCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// countryName expands an ISO 3166-1 alpha-2 code to an English display name.
// The raw code is kept when it does not parse as a region.
func countryName(code string) string {
	region, err := language.ParseRegion(code)
	if err != nil {
		return code
	}
	if name := display.English.Regions().Name(region); name != "" {
		return name
	}
	return code
}
