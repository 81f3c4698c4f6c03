package mensa

// MeatType represents the meat/diet classification of a dish.
//
// The values mirror the markers printed on the Studierendenwerk menu pages.
// MeatUnknown is used for dishes whose markers match nothing in the
// configured marker sets.
type MeatType string

const (
	// MeatBeef indicates a dish containing beef ("R" marker).
	MeatBeef MeatType = "beef"
	// MeatPork indicates a dish containing pork ("S" marker).
	MeatPork MeatType = "pork"
	// MeatPoultry indicates a dish containing poultry ("G" marker).
	MeatPoultry MeatType = "poultry"
	// MeatFish indicates a dish containing fish ("F" marker).
	MeatFish MeatType = "fish"
	// MeatVegetarian indicates an ovo-lacto-vegetarian dish ("OLV" marker).
	MeatVegetarian MeatType = "vegetarian"
	// MeatVegan indicates a vegan dish ("Vegan" marker).
	MeatVegan MeatType = "vegan"
	// MeatUnknown indicates the classification could not be determined.
	MeatUnknown MeatType = "unknown"
)

// MeatMarkerConfig describes how to map the page's dish markers to meat
// types. Marker comparison is exact; markers not listed anywhere are
// ignored (the pages also mark additives and allergens the bot does not
// care about).
type MeatMarkerConfig struct {
	// BeefMarkers are markers indicating beef.
	BeefMarkers []string
	// PorkMarkers are markers indicating pork.
	PorkMarkers []string
	// PoultryMarkers are markers indicating poultry.
	PoultryMarkers []string
	// FishMarkers are markers indicating fish.
	FishMarkers []string
	// VegetarianMarkers are markers indicating an ovo-lacto-vegetarian dish.
	VegetarianMarkers []string
	// VeganMarkers are markers indicating a vegan dish.
	VeganMarkers []string
}

// DefaultMeatMarkerConfig returns the marker sets used by the
// Studierendenwerk Aachen menu pages.
func DefaultMeatMarkerConfig() MeatMarkerConfig {
	return MeatMarkerConfig{
		BeefMarkers:       []string{"R"},
		PorkMarkers:       []string{"S"},
		PoultryMarkers:    []string{"G"},
		FishMarkers:       []string{"F", "A"},
		VegetarianMarkers: []string{"OLV"},
		VeganMarkers:      []string{"Vegan", "vegan"},
	}
}

// ClassifyMeat maps the markers of one dish to its meat types. Markers
// matching no configured set are skipped. The result is deduplicated and
// in canonical order; a dish with no recognized marker yields no types
// (not MeatUnknown, which is reserved for callers that require a value).
func ClassifyMeat(markers []string, config MeatMarkerConfig) []MeatType {
	seen := make(map[MeatType]bool)
	for _, m := range markers {
		t := matchMarker(m, config)
		if t == MeatUnknown {
			continue
		}
		seen[t] = true
	}

	var result []MeatType
	for _, t := range canonicalMeatOrder {
		if seen[t] {
			result = append(result, t)
		}
	}
	return result
}

// canonicalMeatOrder fixes the order of meat types in classification
// results and in rendered emoji columns.
var canonicalMeatOrder = []MeatType{
	MeatBeef, MeatPork, MeatPoultry, MeatFish, MeatVegetarian, MeatVegan,
}

// matchMarker matches a single marker against the config's marker sets.
func matchMarker(marker string, config MeatMarkerConfig) MeatType {
	for _, v := range config.BeefMarkers {
		if marker == v {
			return MeatBeef
		}
	}
	for _, v := range config.PorkMarkers {
		if marker == v {
			return MeatPork
		}
	}
	for _, v := range config.PoultryMarkers {
		if marker == v {
			return MeatPoultry
		}
	}
	for _, v := range config.FishMarkers {
		if marker == v {
			return MeatFish
		}
	}
	for _, v := range config.VegetarianMarkers {
		if marker == v {
			return MeatVegetarian
		}
	}
	for _, v := range config.VeganMarkers {
		if marker == v {
			return MeatVegan
		}
	}
	return MeatUnknown
}
