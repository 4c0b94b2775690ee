package entity

// Locale is an ISO 639-1 code of a site locale.
type Locale string

const (
	LocaleEnglish   Locale = "en"
	LocaleBulgarian Locale = "bg"
	LocaleHungarian Locale = "hu"
)

// DefaultLocale is used whenever a locale is missing or unsupported.
const DefaultLocale = LocaleEnglish

// Locales is the list of supported locales, default first.
var Locales = []Locale{LocaleEnglish, LocaleBulgarian, LocaleHungarian}

func IsValidLocale(l string) bool {
	for _, loc := range Locales {
		if string(loc) == l {
			return true
		}
	}
	return false
}
