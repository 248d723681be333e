package nutrition

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// gramsPerUnit converts one unit of an ingredient amount to grams. Volume
// units assume water-like density, which is wrong for oil and flour but
// close enough for deviation scoring.
var gramsPerUnit = map[string]float64{
	"g":           1,
	"gram":        1,
	"grams":       1,
	"kg":          1000,
	"kilogram":    1000,
	"kilograms":   1000,
	"oz":          28.35,
	"ounce":       28.35,
	"ounces":      28.35,
	"lb":          453.6,
	"pound":       453.6,
	"pounds":      453.6,
	"cup":         240,
	"cups":        240,
	"tbsp":        15,
	"tablespoon":  15,
	"tablespoons": 15,
	"tsp":         5,
	"teaspoon":    5,
	"teaspoons":   5,
	"ml":          1,
	"milliliter":  1,
	"milliliters": 1,
	"l":           1000,
	"liter":       1000,
	"liters":      1000,
}

const unknownUnitGrams = 100

// toGrams converts an ingredient amount to grams. Unrecognized units fall
// back to a flat 100 g so resolution never aborts on unit noise.
func toGrams(amount float64, unit string) float64 {
	mult, ok := gramsPerUnit[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		log.Warn().Str("unit", unit).Msg("unknown ingredient unit, assuming 100g")
		return unknownUnitGrams
	}
	return amount * mult
}
