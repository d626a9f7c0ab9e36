package linkedin

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"alumnisync-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// degree/role text taken from a result card is capped at this length,
// the card sometimes leaks whole activity summaries into one line
const maxCardDegreeLen = 150

type CardOptions struct {
	// placeholder role line when no card text qualifies
	DefaultDegree string
	// graduation year implied by the cohort being scanned, 0 for none
	DefaultGradYear int
}

func isPlaceholderAvatar(src string) bool {
	if src == "" {
		return true
	}
	for _, p := range placeholderAvatarPatterns {
		if strings.Contains(src, p) {
			return true
		}
	}
	return false
}

func isNonProfilePath(url string) bool {
	for _, p := range nonProfilePathPatterns {
		if strings.Contains(url, p) {
			return true
		}
	}
	return false
}

func isActionLabel(line string) bool {
	for _, label := range actionLabels {
		if strings.Contains(line, label) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	// don't split a multi-byte rune
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}

// ExtractCards pulls zero or more profiles out of a rendered results
// page. each card is judged independently: a rejected card (no real
// photo, chrome text where the name should be) is skipped, it never
// fails the page. observations are deduplicated by normalized profile
// url within the pass.
func ExtractCards(doc *goquery.Document, opts CardOptions) []Profile {
	var out []Profile
	seen := map[string]bool{}

	doc.Find(selectorProfileAnchor).Each(func(_ int, link *goquery.Selection) {
		href := link.AttrOr("href", "")
		url := NormalizeProfileURL(href)
		if href == "" || seen[url] || isNonProfilePath(url) {
			return
		}

		card := link.Closest(selectorCardContainer)
		if card.Length() == 0 {
			card = link.Parent()
		}

		// a card without a real photo is not a distinguishable person,
		// importing it would pollute the directory
		avatar := card.Find("img").First().AttrOr("src", "")
		if isPlaceholderAvatar(avatar) {
			return
		}

		name := htmlutil.FirstLine(link)
		if utf8.RuneCountInString(name) < 3 {
			return
		}
		for _, chrome := range nameChromePatterns {
			if strings.Contains(name, chrome) {
				return
			}
		}

		degree := opts.DefaultDegree
		for _, line := range htmlutil.Lines(card) {
			if utf8.RuneCountInString(line) <= 5 {
				continue
			}
			if strings.Contains(line, name) || isActionLabel(line) {
				continue
			}
			degree = truncate(line, maxCardDegreeLen)
			break
		}

		seen[url] = true
		out = append(out, Profile{
			FullName:   name,
			ProfileURL: url,
			AvatarURL:  avatar,
			DegreeText: degree,
			GradYear:   opts.DefaultGradYear,
		})
	})

	return out
}

// best-effort page count estimate from the "N results" header, ten
// results to a page. falls back to 10 pages when the header is
// missing or unparseable.
func EstimateTotalPages(doc *goquery.Document, maxPages int) int {
	text := doc.Find(selectorResultsHeader).First().Text()
	digits := strings.Builder{}
	for _, c := range text {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}

	pages := 10
	if n, err := strconv.Atoi(digits.String()); err == nil && n > 0 {
		pages = (n + 9) / 10
	}
	if maxPages > 0 && pages > maxPages {
		pages = maxPages
	}
	return pages
}
