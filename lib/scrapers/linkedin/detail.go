package linkedin

import (
	"regexp"
	"strings"

	"alumnisync-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// what a visit to one profile page yields. zero values mean the page
// didn't expose the field, never that extraction failed.
type Detail struct {
	AvatarURL       string
	CurrentJobTitle string
	CurrentCompany  string
	CompanyLogoURL  string
	// raw degree observations for the target institution, pre-dedup
	Degrees   []string
	EntryYear int
	GradYear  int
}

type DetailOptions struct {
	// institution whose education entries are kept
	Institution string
}

var yearToken = regexp.MustCompile(`\b(\d{4})\b`)

func isNumericNoise(s string) bool {
	rest := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == ' ' || r == '-' {
			return -1
		}
		return r
	}, s)
	if rest == "" {
		return true
	}
	for _, p := range followerNoisePatterns {
		if strings.Contains(strings.ToLower(s), p) {
			return true
		}
	}
	return false
}

// ExtractDetail reads one rendered profile page. every selector miss
// degrades to an absent field, a single broken section must never
// discard the rest of the page.
func ExtractDetail(doc *goquery.Document, opts DetailOptions) Detail {
	var out Detail

	for _, sel := range avatarSelectors {
		src := doc.Find(sel).First().AttrOr("src", "")
		if src != "" && !isPlaceholderAvatar(src) {
			out.AvatarURL = src
			break
		}
	}

	extractExperience(doc, &out)
	extractEducation(doc, opts.Institution, &out)

	if out.CurrentJobTitle == "" {
		// no structured experience block visible, the headline is the
		// next best statement of what the person does
		out.CurrentJobTitle = strings.TrimSpace(doc.Find(selectorHeadline).First().Text())
	}

	return out
}

func extractExperience(doc *goquery.Document, out *Detail) {
	first := doc.Find(selectorExperienceItem).First()
	if first.Length() == 0 {
		return
	}

	out.CurrentJobTitle = strings.TrimSpace(first.Find(selectorExpTitle).First().Text())

	company := strings.TrimSpace(first.Find(selectorExpCompany).First().Text())
	// the company line carries employment metadata after a separator:
	// "Google · Full-time"
	company, _, _ = strings.Cut(company, "·")
	out.CurrentCompany = strings.TrimSpace(company)

	out.CompanyLogoURL = first.Find(selectorExpLogo).First().AttrOr("src", "")
}

func extractEducation(doc *goquery.Document, institution string, out *Detail) {
	section := doc.Find(selectorEduSection).Closest("section")
	if section.Length() == 0 {
		return
	}

	section.Find(selectorExperienceItem).Each(func(_ int, entry *goquery.Selection) {
		school := strings.TrimSpace(entry.Find(selectorEduSchool).First().Text())
		if !textutil.MatchInstitution(school, institution) {
			return
		}

		degree := strings.TrimSpace(entry.Find(selectorEduDegree).First().Text())
		if degree != "" && !isNumericNoise(degree) {
			out.Degrees = append(out.Degrees, degree)
		}

		caption := entry.Find(selectorEduCaption).First().Text()
		for _, m := range yearToken.FindAllString(caption, -1) {
			year := 0
			for _, c := range m {
				year = year*10 + int(c-'0')
			}
			if out.EntryYear == 0 || year < out.EntryYear {
				out.EntryYear = year
			}
			if year > out.GradYear {
				out.GradYear = year
			}
		}
	})
}
