package mensa

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Page contract, pinned by the fixture tests in parse_test.go:
//   - each day is a div.preventBreak with an h3 headline ending in DD.MM.YYYY
//   - main dishes are rows of table.menues, side dishes rows of table.extras
//   - a row holds span.menue-category, span.menue-desc and an optional
//     span.menue-price; meat/additive markers are sup tags in the description
//   - components in the description are separated by "|", the first one is
//     the main component

var (
	dayDatePattern = regexp.MustCompile(`(\d{2})\.(\d{2})\.(\d{4})\s*$`)
	pricePattern   = regexp.MustCompile(`(\d+),(\d{2})`)
)

// ParseWeek parses one canteen week page. Days with an unparseable headline
// and rows without a description are skipped; a page without any
// recognizable day is an error.
func ParseWeek(r io.Reader, loc *time.Location, markers MeatMarkerConfig) (Week, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing menu page: %w", err)
	}

	week := make(Week)
	doc.Find("div.preventBreak").Each(func(_ int, day *goquery.Selection) {
		date, ok := parseDayDate(day.Find("h3").First().Text(), loc)
		if !ok {
			return
		}

		menu := &DayMenu{Date: date}
		day.Find("table.menues tr").Each(func(_ int, row *goquery.Selection) {
			if dish := parseDish(row, markers); dish != nil {
				menu.MainDishes = append(menu.MainDishes, *dish)
			}
		})
		day.Find("table.extras tr").Each(func(_ int, row *goquery.Selection) {
			menu.SideDishes = append(menu.SideDishes, parseSideDishes(row, markers)...)
		})

		week[DateKey(date)] = menu
	})

	if len(week) == 0 {
		return nil, fmt.Errorf("no day menus found on page")
	}
	return week, nil
}

// parseDayDate extracts the date from a day headline like
// "Montag, 25.08.2025".
func parseDayDate(headline string, loc *time.Location) (time.Time, bool) {
	m := dayDatePattern.FindStringSubmatch(strings.TrimSpace(headline))
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), true
}

// parseDish parses one menu table row. Returns nil for rows without a
// description (the pages use empty rows as spacers).
func parseDish(row *goquery.Selection, markers MeatMarkerConfig) *Dish {
	desc := row.Find("span.menue-desc").First()
	if desc.Length() == 0 {
		return nil
	}

	dishMarkers := collectMarkers(desc)

	// Description text without the marker sups.
	stripped := desc.Clone()
	stripped.Find("sup").Remove()

	components := splitComponents(stripped.Text())
	if len(components) == 0 {
		return nil
	}

	dish := &Dish{
		Category:   strings.TrimSpace(row.Find("span.menue-category").First().Text()),
		Main:       Component{Title: components[0]},
		Meat:       ClassifyMeat(dishMarkers, markers),
		PriceCents: parsePriceCents(row.Find("span.menue-price").First().Text()),
	}
	for _, title := range components[1:] {
		dish.Aux = append(dish.Aux, Component{Title: title})
	}
	return dish
}

// parseSideDishes parses one side-dish table row. Unlike a main dish,
// where the components after the first are garnishes of one dish, every
// component of a side-dish row is a menu option of its own ("Salzkartoffeln
// | Spiralnudeln" offers either), so each becomes its own Dish.
func parseSideDishes(row *goquery.Selection, markers MeatMarkerConfig) []Dish {
	parsed := parseDish(row, markers)
	if parsed == nil {
		return nil
	}

	result := []Dish{{
		Category:   parsed.Category,
		Main:       parsed.Main,
		Meat:       parsed.Meat,
		PriceCents: parsed.PriceCents,
	}}
	for _, option := range parsed.Aux {
		result = append(result, Dish{
			Category: parsed.Category,
			Main:     option,
			Meat:     parsed.Meat,
		})
	}
	return result
}

// collectMarkers gathers all sup markers of a description. Sups carry
// comma-separated lists mixing meat markers with additive numbers
// (e.g. "S,2,3"); splitting here, filtering happens in ClassifyMeat.
func collectMarkers(desc *goquery.Selection) []string {
	var result []string
	desc.Find("sup").Each(func(_ int, sup *goquery.Selection) {
		for _, part := range strings.Split(sup.Text(), ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
	})
	return result
}

// splitComponents splits a dish description on "|" into trimmed,
// non-empty component titles.
func splitComponents(text string) []string {
	var result []string
	for _, part := range strings.Split(text, "|") {
		part = strings.Join(strings.Fields(part), " ")
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

// parsePriceCents parses a price like "2,80 €" into cents. Returns 0 if
// the text contains no price.
func parsePriceCents(text string) int {
	m := pricePattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	euros, _ := strconv.Atoi(m[1])
	cents, _ := strconv.Atoi(m[2])
	return euros*100 + cents
}
