package domain

// conditionDescriptions maps OpenWeatherMap condition groups to the Spanish
// descriptions used throughout the stored dataset.
var conditionDescriptions = map[string]string{
	"Clear":        "cielo despejado",
	"Clouds":       "nublado",
	"Rain":         "lluvia",
	"Drizzle":      "llovizna",
	"Thunderstorm": "tormenta eléctrica",
	"Snow":         "nieve",
	"Mist":         "neblina",
	"Fog":          "niebla",
	"Haze":         "bruma",
	"Smoke":        "humo",
	"Dust":         "polvo",
	"Sand":         "arena",
	"Squall":       "turbonada",
	"Tornado":      "tornado",
}

// TranslateCondition returns the Spanish description for a condition group.
// Unknown groups fall back to the provided description unchanged.
func TranslateCondition(main, description string) string {
	if translated, ok := conditionDescriptions[main]; ok {
		return translated
	}
	return description
}
