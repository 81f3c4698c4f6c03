package mensa

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixtureWeek(t *testing.T) Week {
	t.Helper()
	f, err := os.Open("testdata/week.html")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	week, err := ParseWeek(f, time.UTC, DefaultMeatMarkerConfig())
	require.NoError(t, err)
	return week
}

func TestParseWeekDays(t *testing.T) {
	week := loadFixtureWeek(t)

	// Two days with a date headline; the "Betriebsferien" panel has none
	// and must be skipped.
	assert.Len(t, week, 2)

	monday := week.For(time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, monday)
	assert.Equal(t, time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC), monday.Date)

	tuesday := week.For(time.Date(2025, 8, 26, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, tuesday)
	require.Len(t, tuesday.MainDishes, 1)
	assert.Equal(t, []MeatType{MeatPoultry}, tuesday.MainDishes[0].Meat)
}

func TestParseWeekDishes(t *testing.T) {
	week := loadFixtureWeek(t)
	monday := week.For(time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, monday)

	// The empty spacer row is dropped.
	require.Len(t, monday.MainDishes, 4)

	schnitzel := monday.MainDishes[0]
	assert.Equal(t, "Tellergericht", schnitzel.Category)
	assert.Equal(t, "Paniertes Schweineschnitzel", schnitzel.Main.Title)
	require.Len(t, schnitzel.Aux, 2)
	assert.Equal(t, "Bratensauce", schnitzel.Aux[0].Title)
	assert.Equal(t, "Pommes frites", schnitzel.Aux[1].Title)
	assert.Equal(t, []MeatType{MeatPork}, schnitzel.Meat)
	assert.Equal(t, 280, schnitzel.PriceCents)

	curry := monday.MainDishes[1]
	assert.Equal(t, "Gemüse-Curry", curry.Main.Title)
	assert.Equal(t, []MeatType{MeatVegan}, curry.Meat)

	fish := monday.MainDishes[2]
	assert.Equal(t, []MeatType{MeatFish}, fish.Meat)
}

func TestParseWeekSideDishes(t *testing.T) {
	week := loadFixtureWeek(t)
	monday := week.For(time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, monday)

	// Every component of a side-dish row is a menu option of its own:
	// "Salzkartoffeln | Spiralnudeln" offers either, so each row yields
	// one dish per component and none of them carries aux components.
	require.Len(t, monday.SideDishes, 4)

	var byCategory = map[string][]string{}
	for _, dish := range monday.SideDishes {
		assert.Empty(t, dish.Aux)
		byCategory[dish.Category] = append(byCategory[dish.Category], dish.Main.Title)
	}
	assert.Equal(t, []string{"Salzkartoffeln", "Spiralnudeln"}, byCategory["Hauptbeilagen"])
	assert.Equal(t, []string{"Erbsen und Möhren", "Blattsalat"}, byCategory["Nebenbeilage"])
}

func TestParseWeekEmptyPage(t *testing.T) {
	_, err := ParseWeek(strings.NewReader("<html><body></body></html>"), time.UTC, DefaultMeatMarkerConfig())
	assert.Error(t, err)
}

func TestParseDayDate(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		headline string
		want     time.Time
		ok       bool
	}{
		{"Montag, 25.08.2025", time.Date(2025, 8, 25, 0, 0, 0, 0, loc), true},
		{"Freitag, 29.08.2025 ", time.Date(2025, 8, 29, 0, 0, 0, 0, loc), true},
		{"Betriebsferien", time.Time{}, false},
		{"Montag, 25.13.2025", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := parseDayDate(tt.headline, loc)
		assert.Equal(t, tt.ok, ok, "headline %q", tt.headline)
		if tt.ok {
			assert.Equal(t, tt.want, got, "headline %q", tt.headline)
		}
	}
}

func TestParsePriceCents(t *testing.T) {
	assert.Equal(t, 280, parsePriceCents("2,80 €"))
	assert.Equal(t, 1005, parsePriceCents("10,05 €"))
	assert.Equal(t, 0, parsePriceCents(""))
	assert.Equal(t, 0, parsePriceCents("ausverkauft"))
}
