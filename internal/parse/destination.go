// Package parse normalizes the destination strings reported by AIS
// providers. The same port shows up as free text ("PORT OF ANTWERP"), a bare
// UN/LOCODE ("BEANR"), or a code buried in extra tokens ("NLRTM ECT",
// "BEANR > BEZEE"); everything is resolved to a canonical UN/LOCODE before
// comparison against a vessel's assigned port.
package parse

import (
	"regexp"
	"strings"
)

// portAliases maps known destination spellings to their canonical UN/LOCODE.
// Adding a port means adding rows here, nothing else.
var portAliases = map[string]string{
	// Rotterdam
	"NLRTM":             "NLRTM",
	"ROTTERDAM":         "NLRTM",
	"PORTOFROTTERDAM":   "NLRTM",
	"PORT OF ROTTERDAM": "NLRTM",

	// Antwerp
	"BEANR":           "BEANR",
	"ANTWERP":         "BEANR",
	"PORTOFANTWERP":   "BEANR",
	"PORT OF ANTWERP": "BEANR",

	// Zeebrugge
	"BEZEE":             "BEZEE",
	"ZEEBRUGGE":         "BEZEE",
	"PORTOFZEEBRUGGE":   "BEZEE",
	"PORT OF ZEEBRUGGE": "BEZEE",

	// Barcelona
	"ESBCN":             "ESBCN",
	"BARCELONA":         "ESBCN",
	"PORTOFBARCELONA":   "ESBCN",
	"PORT OF BARCELONA": "ESBCN",

	// Valencia
	"ESVLC":            "ESVLC",
	"VALENCIA":         "ESVLC",
	"PORTOFVALENCIA":   "ESVLC",
	"PORT OF VALENCIA": "ESVLC",

	// Las Palmas
	"ESLPA":              "ESLPA",
	"LASPALMAS":          "ESLPA",
	"PORTOFLASPALMAS":    "ESLPA",
	"PORT OF LAS PALMAS": "ESLPA",
}

var nonAlnumRe = regexp.MustCompile(`[^A-Z0-9]`)

// NormalizeDestination resolves a raw provider destination string to a
// canonical UN/LOCODE. When no alias matches, the trailing 5-character
// candidate of the cleaned string is returned so equal raw inputs still
// compare equal. Empty or too-short input normalizes to "".
func NormalizeDestination(raw string) string {
	dest := strings.ToUpper(strings.TrimSpace(raw))
	if dest == "" {
		return ""
	}

	if code, ok := portAliases[dest]; ok {
		return code
	}
	noSpaces := strings.ReplaceAll(dest, " ", "")
	if code, ok := portAliases[noSpaces]; ok {
		return code
	}

	// A code buried in extra tokens: "NLRTM ECT" names a terminal, "BEANR
	// -----> ESBCN" a routing chain. The last matching token wins so the
	// final leg of a chain is the one compared.
	matched := ""
	for _, tok := range strings.Fields(dest) {
		if code, ok := portAliases[nonAlnumRe.ReplaceAllString(tok, "")]; ok {
			matched = code
		}
	}
	if matched != "" {
		return matched
	}

	// No token is a known code; fall back to the trailing and leading 5
	// characters of the cleaned string ("BE ANR BEZ EE", "NLRTMECT").
	cleaned := nonAlnumRe.ReplaceAllString(dest, "")
	if len(cleaned) < 5 {
		return ""
	}
	if code, ok := portAliases[cleaned[len(cleaned)-5:]]; ok {
		return code
	}
	if code, ok := portAliases[cleaned[:5]]; ok {
		return code
	}
	return cleaned[len(cleaned)-5:]
}

// DestinationMatches reports whether a reported destination resolves to the
// given port UN/LOCODE. Either side missing is a mismatch.
func DestinationMatches(destination, unlocode string) bool {
	if strings.TrimSpace(destination) == "" || strings.TrimSpace(unlocode) == "" {
		return false
	}
	return NormalizeDestination(destination) == NormalizeDestination(unlocode)
}
