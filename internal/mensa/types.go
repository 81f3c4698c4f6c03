package mensa

import (
	"time"
)

// Component is a single part of a dish, e.g. the schnitzel or a sauce.
type Component struct {
	// Title is the human-readable name of the component.
	Title string

	// PriceCents is the price in Euro cents, 0 if the page shows none.
	PriceCents int
}

// Dish is one row of the menu: a category, a main component and optional
// auxiliary components, plus the meat/diet classification.
type Dish struct {
	// Category is the menu category as printed on the page
	// (e.g. "Tellergericht", "Klassiker", "Hauptbeilagen").
	Category string

	// Main is the first component of the dish description.
	Main Component

	// Aux are the remaining components (sauces, toppings).
	Aux []Component

	// Meat are the meat/diet types derived from the page markers.
	Meat []MeatType

	// PriceCents is the dish price in Euro cents, 0 if unknown.
	PriceCents int
}

// DayMenu is the menu of a single day.
type DayMenu struct {
	// Date is the day the menu is valid for, at midnight in the
	// canteen's local time zone.
	Date time.Time

	// MainDishes are the rows of the main menu table.
	MainDishes []Dish

	// SideDishes are the rows of the side dish table.
	SideDishes []Dish
}

// Week maps date keys (see DateKey) to day menus, as parsed from one
// canteen week page.
type Week map[string]*DayMenu

// DateKey returns the map key used for a date in a Week.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// For returns the menu for the given date, or nil if the week has none.
func (w Week) For(t time.Time) *DayMenu {
	return w[DateKey(t)]
}
