// Package costformat renders a completed cost session as a Markdown
// section (spec.md §4.5).
package costformat

// DetailLevel controls how much of a cost session is rendered.
type DetailLevel string

const (
	Summary   DetailLevel = "Summary"
	Full      DetailLevel = "Full"
	Breakdown DetailLevel = "Breakdown"
)

// Config controls cost-section rendering. Zero value is not directly
// useful; construct with DefaultConfig or ForLocale.
type Config struct {
	Enabled                 bool
	DetailLevel             DetailLevel
	CurrencyPrecision       int
	ShowBreakdownTable      bool
	DateFormat              string
	Locale                  string
	ThousandsSeparator      string
	IncludeMetadata         bool
	MaxEndpointDisplayLength int
}

// DefaultConfig matches spec.md §4.5's defaults: full detail, 2-decimal
// currency, en_US-style separators.
func DefaultConfig() Config {
	return Config{
		Enabled:                  true,
		DetailLevel:              Full,
		CurrencyPrecision:        2,
		ShowBreakdownTable:       true,
		DateFormat:               "2006-01-02 15:04:05 MST",
		Locale:                   "en_US",
		ThousandsSeparator:       ",",
		IncludeMetadata:          false,
		MaxEndpointDisplayLength: 30,
	}
}

// SummaryOnly returns a config that omits the breakdown table and
// statistics, rendering only the top-line totals.
func SummaryOnly() Config {
	c := DefaultConfig()
	c.DetailLevel = Summary
	c.ShowBreakdownTable = false
	return c
}

// FullBreakdown returns a config with the most verbose rendering.
func FullBreakdown() Config {
	c := DefaultConfig()
	c.DetailLevel = Breakdown
	c.ShowBreakdownTable = true
	c.IncludeMetadata = true
	return c
}

// localePreset pairs a Go time-layout date format with a thousands
// separator for one locale.
type localePreset struct {
	dateFormat         string
	thousandsSeparator string
}

// localePresets maps the locales spec.md §4.5 enumerates to their defaults;
// an unrecognized locale falls back to ISO date format and a comma, per
// the original implementation's catch-all match arm.
var localePresets = map[string]localePreset{
	"en_US": {dateFormat: "01/02/2006 03:04:05 PM MST", thousandsSeparator: ","},
	"en_GB": {dateFormat: "02/01/2006 15:04:05 MST", thousandsSeparator: ","},
	"de_DE": {dateFormat: "02.01.2006 15:04:05 MST", thousandsSeparator: "."},
	"fr_FR": {dateFormat: "02/01/2006 15:04:05 MST", thousandsSeparator: " "},
	"ja_JP": {dateFormat: "2006年01月02日 15:04:05 MST", thousandsSeparator: ","},
	"zh_CN": {dateFormat: "2006-01-02 15:04:05 MST", thousandsSeparator: ","},
}

const isoDateFormat = "2006-01-02 15:04:05 MST"

// ForLocale returns a config seeded with the date format and thousands
// separator for locale, falling back to ISO formatting and a comma for
// locales not in the preset table.
func ForLocale(locale string) Config {
	c := DefaultConfig()
	c.Locale = locale
	if preset, ok := localePresets[locale]; ok {
		c.DateFormat = preset.dateFormat
		c.ThousandsSeparator = preset.thousandsSeparator
		return c
	}
	c.DateFormat = isoDateFormat
	c.ThousandsSeparator = ","
	return c
}
