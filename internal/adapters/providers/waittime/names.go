package waittime

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	hospitalAliases = []struct {
		pattern     *regexp.Regexp
		replacement string
	}{
		{regexp.MustCompile(`CENTRE HOSPITALIER DE L'UNIVERSITE DE MONTREAL`), "CHUM"},
		{regexp.MustCompile(`CENTRE HOSPITALIER`), "CH"},
		{regexp.MustCompile(`CENTRE UNIVERSITAIRE DE SANTE MCGILL`), "CUSM"},
		{regexp.MustCompile(`HOPITAL ROYAL VICTORIA.*GLEN`), "ROYAL VICTORIA"},
		{regexp.MustCompile(`HOPITAL GENERAL JUIF`), "JEWISH GENERAL"},
		{regexp.MustCompile(`L'HOPITAL DE MONTREAL POUR ENFANTS`), "MONTREAL CHILDREN"},
		{regexp.MustCompile(`CHU SAINTE-JUSTINE`), "SAINTE JUSTINE"},
		{regexp.MustCompile(`HOPITAL|HOSPITAL`), ""},
		{regexp.MustCompile(`\b(DE|DU|DES|LA|LE|LES) |L'`), ""},
	}
	whitespace = regexp.MustCompile(`\s+`)
)

// NormalizeHospitalName folds case, strips accents, maps common French and
// English hospital names onto shared short forms and drops filler words so
// names from different sources can be compared.
func NormalizeHospitalName(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}
	folded = strings.ToUpper(folded)
	folded = strings.NewReplacer("’", "'", "‘", "'").Replace(folded)

	for _, alias := range hospitalAliases {
		folded = alias.pattern.ReplaceAllString(folded, alias.replacement)
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(folded, " "))
}
