// Package mensa models the Studierendenwerk Aachen canteen menus and
// provides pluggable sources for fetching them.
package mensa

import (
	"fmt"
	"sort"
)

// DefaultBaseURL is the Studierendenwerk Aachen site hosting the weekly
// menu pages.
const DefaultBaseURL = "https://www.studierendenwerk-aachen.de"

// Canteen identifies one of the Studierendenwerk Aachen canteens.
type Canteen string

const (
	CanteenAcademica      Canteen = "academica"
	CanteenAhornstrasse   Canteen = "ahornstrasse"
	CanteenBayernallee    Canteen = "bayernallee"
	CanteenEupenerStrasse Canteen = "eupenerstrasse"
	CanteenGoethestrasse  Canteen = "goethestrasse"
	CanteenVita           Canteen = "vita"
	CanteenSuedpark       Canteen = "suedpark"
	CanteenJuelich        Canteen = "juelich"
	CanteenTemplergraben  Canteen = "templergraben"
)

type canteenInfo struct {
	// DisplayName is the name used in message headers.
	DisplayName string
	// Slug is the path component of the weekly menu page.
	Slug string
}

var canteens = map[Canteen]canteenInfo{
	CanteenAcademica:      {DisplayName: "Mensa Academica", Slug: "academica-w"},
	CanteenAhornstrasse:   {DisplayName: "Mensa Ahornstraße", Slug: "ahornstrasse-w"},
	CanteenBayernallee:    {DisplayName: "Mensa Bayernallee", Slug: "bayernallee-w"},
	CanteenEupenerStrasse: {DisplayName: "Mensa Eupener Straße", Slug: "eupenerstrasse-w"},
	CanteenGoethestrasse:  {DisplayName: "Mensa Goethestraße", Slug: "goethestrasse-w"},
	CanteenVita:           {DisplayName: "Mensa Vita", Slug: "vita-w"},
	CanteenSuedpark:       {DisplayName: "Mensa Südpark", Slug: "suedpark-w"},
	CanteenJuelich:        {DisplayName: "Mensa Jülich", Slug: "juelich-w"},
	CanteenTemplergraben:  {DisplayName: "Bistro Templergraben", Slug: "templergraben-w"},
}

// ParseCanteen validates a canteen ID from configuration.
func ParseCanteen(id string) (Canteen, error) {
	c := Canteen(id)
	if _, ok := canteens[c]; !ok {
		return "", fmt.Errorf("unknown canteen %q (known: %v)", id, KnownCanteens())
	}
	return c, nil
}

// KnownCanteens returns all canteen IDs in stable order.
func KnownCanteens() []string {
	ids := make([]string, 0, len(canteens))
	for c := range canteens {
		ids = append(ids, string(c))
	}
	sort.Strings(ids)
	return ids
}

// DisplayName returns the canteen name used in message headers.
func (c Canteen) DisplayName() string {
	if info, ok := canteens[c]; ok {
		return info.DisplayName
	}
	return string(c)
}

// MenuPath returns the site-relative path of the canteen's weekly menu page.
func (c Canteen) MenuPath() string {
	info, ok := canteens[c]
	if !ok {
		return ""
	}
	return fmt.Sprintf("/speiseplaene/%s.html", info.Slug)
}
