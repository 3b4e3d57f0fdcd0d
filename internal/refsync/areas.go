package refsync

import "fmt"

// areaVocabulary is the fixed, ordered list of region names the reference
// sync accepts; an area's id is its index in this slice. An area name
// encountered in the game-data repository that is not in this list fails
// the sync outright rather than silently inventing a new id.
var areaVocabulary = []string{
	"Central Crateria",
	"West Crateria",
	"East Crateria",
	"Blue Brinstar",
	"Green Brinstar",
	"Pink Brinstar",
	"Red Brinstar",
	"Kraid Brinstar",
	"West Upper Norfair",
	"East Upper Norfair",
	"Crocomire Upper Norfair",
	"West Lower Norfair",
	"East Lower Norfair",
	"Wrecked Ship",
	"Outer Maridia",
	"Green Inner Maridia",
	"Yellow Inner Maridia",
	"Pink Inner Maridia",
	"Tourian",
}

// areaIndex maps an area name to its fixed id, built once at package init.
var areaIndex = func() map[string]int32 {
	m := make(map[string]int32, len(areaVocabulary))
	for i, name := range areaVocabulary {
		m[name] = int32(i)
	}
	return m
}()

// areaID resolves a composed area name to its fixed id, failing the sync
// for any name outside the accepted vocabulary.
func areaID(name string) (int32, error) {
	id, ok := areaIndex[name]
	if !ok {
		return 0, fmt.Errorf("refsync: unknown area %q", name)
	}
	return id, nil
}

// composeAreaName builds a room's display area name from its area plus the
// optional subarea/subsubarea prefixes, treating a subarea of "Main" as if
// it were absent (per the upstream convention where "Main" denotes the
// area's default/unnamed subarea).
func composeAreaName(area, subarea, subsubarea string) string {
	name := area
	if subarea != "" && subarea != "Main" {
		name = subarea + " " + name
	}
	if subsubarea != "" {
		name = subsubarea + " " + name
	}
	return name
}
