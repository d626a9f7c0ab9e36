package linkedin

import "strings"

// collapses repeated observations of the same qualification into one
// canonical string, joined with " / " in first-seen order. collapsing
// is exact-match only (post-trim, case-sensitive): substring merging
// would swallow genuinely distinct short program names ("Bachelor" vs
// "Bachelor Développeur Web"), so it is deliberately not attempted.
func DedupeDegrees(texts []string) string {
	seen := map[string]bool{}
	var unique []string
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		unique = append(unique, t)
	}
	if len(unique) == 0 {
		return DegreeNotFound
	}
	return strings.Join(unique, " / ")
}
