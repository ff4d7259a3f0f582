package normalize

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// CountryNamer turns an ISO 3166 alpha-2 code into a country name, or "" when unknown
type CountryNamer interface {
	CountryName(code string) string
}

// DisplayNamer names countries with the CLDR tables of golang.org/x/text
type DisplayNamer struct {
	namer display.Namer
}

// NewDisplayNamer returns a namer for the given locale (e.g. "es"); an unparsable
// locale falls back to Spanish, the language of the manifests.
func NewDisplayNamer(locale string) *DisplayNamer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Spanish
	}
	namer := display.Regions(tag)
	if namer == nil {
		namer = display.Regions(language.Spanish)
	}
	return &DisplayNamer{namer: namer}
}

func (d *DisplayNamer) CountryName(code string) string {
	if len(code) != 2 {
		return ""
	}
	region, err := language.ParseRegion(strings.ToUpper(code))
	if err != nil || !region.IsCountry() {
		return ""
	}
	return d.namer.Name(region)
}

// countryCode returns the first two characters of a UN/LOCODE port code
func countryCode(port string) string {
	r := []rune(strings.TrimSpace(port))
	if len(r) > 2 {
		r = r[:2]
	}
	return string(r)
}
