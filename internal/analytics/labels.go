package analytics

import (
	"strings"
	"time"
)

const DefaultLocale = "fr"

// MonthLabels holds the short month names, January first.
type MonthLabels [12]string

var monthLabels = map[string]MonthLabels{
	"fr": {"Jan", "Fév", "Mar", "Avr", "Mai", "Jun", "Jul", "Aoû", "Sep", "Oct", "Nov", "Déc"},
	"en": {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
}

// LabelsFor accepts bare languages and regional tags ("fr-FR", "en_GB").
// Unknown locales fall back to French.
func LabelsFor(locale string) MonthLabels {
	lang := strings.ToLower(strings.TrimSpace(locale))
	if idx := strings.IndexAny(lang, "-_"); idx >= 0 {
		lang = lang[:idx]
	}
	if labels, ok := monthLabels[lang]; ok {
		return labels
	}
	return monthLabels[DefaultLocale]
}

// SupportedLocale reports whether locale has its own label set.
func SupportedLocale(locale string) bool {
	lang := strings.ToLower(strings.TrimSpace(locale))
	if idx := strings.IndexAny(lang, "-_"); idx >= 0 {
		lang = lang[:idx]
	}
	_, ok := monthLabels[lang]
	return ok
}

func (l MonthLabels) Short(month time.Month) string {
	if month < time.January || month > time.December {
		return ""
	}
	return l[month-1]
}
