package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// minimum JaroWinkler similarity for two normalized names to be
// considered the same institution despite not containing each other
const institutionSimilarity = 0.92

// reports whether a scraped institution name refers to the target
// institution. containment handles suffixes like campus names
// ("MyDigitalSchool Lyon"), the similarity fallback handles small
// spelling drift between profile entries.
func MatchInstitution(scraped, target string) bool {
	if target == "" {
		return false
	}
	scraped = NormalizeName(scraped)
	target = NormalizeName(target)
	if scraped == "" {
		return false
	}
	if strings.Contains(scraped, target) {
		return true
	}
	return matchr.JaroWinkler(scraped, target, false) >= institutionSimilarity
}
