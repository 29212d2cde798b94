// Package i18n picks the interface language and translates label codes.
package i18n

import (
	"time"

	"golang.org/x/text/language"
)

// Default is used when nothing in Accept-Language matches.
const Default = "fr"

var (
	supported = []language.Tag{language.French, language.English}
	matcher   = language.NewMatcher(supported)
)

// DetectLanguage returns "fr" or "en" for an Accept-Language header value.
func DetectLanguage(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	base, _ := supported[idx].Base()
	return base.String()
}

var catalog = map[string]map[string]string{
	"fr": {
		"required":         "Requis",
		"invalid_choice":   "Valeur non autorisée",
		"must_be_positive": "Doit être positif",
		"unknown":          "Inconnu",
		"revenue":          "Chiffre d'affaires",
		"count":            "Nombre de factures",
		"available":        "Disponible",
		"rented":           "Loué",
		"maintenance":      "En maintenance",
		"invoiced":         "Facturé",
		"open":             "Non facturé",
		"draft":            "Brouillon",
		"validated":        "Validée",
		"paid":             "Payée",
		"cancelled":        "Annulée",
		"unsettled":        "Non réglée",
		"partial":          "Partiellement réglée",
		"settled":          "Réglée",
	},
	"en": {
		"required":         "Required",
		"invalid_choice":   "Invalid choice",
		"must_be_positive": "Must be positive",
		"unknown":          "Unknown",
		"revenue":          "Revenue",
		"count":            "Invoices",
		"available":        "Available",
		"rented":           "Rented",
		"maintenance":      "Maintenance",
		"invoiced":         "Invoiced",
		"open":             "Not invoiced",
		"draft":            "Draft",
		"validated":        "Validated",
		"paid":             "Paid",
		"cancelled":        "Cancelled",
		"unsettled":        "Unsettled",
		"partial":          "Partially settled",
		"settled":          "Settled",
	},
}

// T translates code into lang, falling back to French and then to the code.
func T(lang, code string) string {
	if s, ok := catalog[lang][code]; ok {
		return s
	}
	if s, ok := catalog[Default][code]; ok {
		return s
	}
	return code
}

var months = map[string][12]string{
	"fr": {"janv.", "févr.", "mars", "avr.", "mai", "juin", "juil.", "août", "sept.", "oct.", "nov.", "déc."},
	"en": {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
}

// MonthLabel renders "juin 2025" / "Jun 2025".
func MonthLabel(lang string, t time.Time) string {
	names, ok := months[lang]
	if !ok {
		names = months[Default]
	}
	return names[t.Month()-1] + " " + t.Format("2006")
}

// DayLabel renders "15/06" in French and "06/15" in English.
func DayLabel(lang string, t time.Time) string {
	if lang == "en" {
		return t.Format("01/02")
	}
	return t.Format("02/01")
}
