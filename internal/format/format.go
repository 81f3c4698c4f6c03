// Package format renders day menus into the Zulip Markdown messages.
package format

import (
	"fmt"
	"strings"

	"github.com/plt-aachen/mensabot/internal/config"
	"github.com/plt-aachen/mensabot/internal/mensa"
)

// PollMessage is the follow-up message asking who is coming along.
const PollMessage = "@all Wer kommt mit essen? Bitte mit 👍 oder 👎 reagieren."

// DateLayout renders dates the way the menu pages and the bot messages do.
const DateLayout = "02.01.2006"

var meatEmoji = map[mensa.MeatType]string{
	mensa.MeatBeef:       "🐂",
	mensa.MeatPork:       "🐖",
	mensa.MeatPoultry:    "🐔",
	mensa.MeatVegetarian: "🧀",
	mensa.MeatVegan:      "🥦",
	mensa.MeatFish:       "🐟",
}

// Topic returns the message topic for a day.
func Topic(prefix string, menu *mensa.DayMenu) string {
	return fmt.Sprintf("%s %s", prefix, menu.Date.Format(DateLayout))
}

// Menu renders the full menu message: a headline, a Markdown table of the
// main dishes (minus excluded categories) and a footer listing the side
// dishes.
func Menu(menu *mensa.DayMenu, canteen mensa.Canteen, settings config.CanteenOverride) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Speiseplan %s %s\n\n", canteen.DisplayName(), menu.Date.Format(DateLayout))
	b.WriteString("| | Gericht | Fleisch |\n|---|---|---|\n")

	rows := make([]string, 0, len(menu.MainDishes))
	for _, dish := range menu.MainDishes {
		if excluded(dish.Category, settings.ExcludedCategories) {
			continue
		}
		rows = append(rows, dishRow(dish))
	}
	b.WriteString(strings.Join(rows, "\n"))

	fmt.Fprintf(&b, "\n\n Dazu:\n\n* %s, sowie\n* %s",
		sideDishes(menu.SideDishes, settings.MainSideCategory),
		sideDishes(menu.SideDishes, settings.SecondarySideCategory))

	return b.String()
}

// dishRow renders one table row: bold category, main component with aux
// components in angle quotes, and the meat emoji column.
func dishRow(dish mensa.Dish) string {
	var aux string
	if len(dish.Aux) > 0 {
		titles := make([]string, len(dish.Aux))
		for i, c := range dish.Aux {
			titles[i] = c.Title
		}
		aux = fmt.Sprintf(" 〈%s〉", strings.Join(titles, " • "))
	}
	return fmt.Sprintf("| **%s** | %s%s | %s |", dish.Category, dish.Main.Title, aux, MeatEmojis(dish.Meat))
}

// sideDishes joins the main components of all side dishes in the given
// category with " oder ".
func sideDishes(dishes []mensa.Dish, category string) string {
	var titles []string
	for _, dish := range dishes {
		if dish.Category == category {
			titles = append(titles, dish.Main.Title)
		}
	}
	return strings.Join(titles, " oder ")
}

// MeatEmojis renders the emoji column for a dish. A vegan dish does not
// additionally show the vegetarian cheese.
func MeatEmojis(meat []mensa.MeatType) string {
	vegan := false
	for _, m := range meat {
		if m == mensa.MeatVegan {
			vegan = true
		}
	}

	var emojis []string
	for _, m := range meat {
		if vegan && m == mensa.MeatVegetarian {
			continue
		}
		if e, ok := meatEmoji[m]; ok {
			emojis = append(emojis, e)
		}
	}
	return strings.Join(emojis, " ")
}

// excluded reports whether the category is in the exclusion list.
func excluded(category string, excludedCategories []string) bool {
	for _, c := range excludedCategories {
		if category == c {
			return true
		}
	}
	return false
}
