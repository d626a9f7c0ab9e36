package htmlutil

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var innerWhitespace = regexp.MustCompile(`[ \t]+`)

// elements that terminate a visual line of text. goquery's Text()
// concatenates text nodes with no separators at all, which makes
// "first line of the card" heuristics impossible, so text is gathered
// with newlines inserted at block boundaries, roughly like the
// browser's innerText.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"td": true, "th": true, "tr": true, "ul": true,
}

func gatherText(node *html.Node, out *strings.Builder) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		out.WriteString(node.Data)
		return
	}
	block := node.Type == html.ElementNode && blockTags[node.Data]
	if block {
		out.WriteByte('\n')
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		gatherText(child, out)
	}
	if block {
		out.WriteByte('\n')
	}
}

func cleanLine(line string) string {
	out := strings.Builder{}
	for _, c := range line {
		// NBSP and friends fail IsPrint, dropping them outright would
		// glue the words they separate
		if unicode.IsSpace(c) {
			out.WriteRune(' ')
			continue
		}
		if unicode.IsPrint(c) {
			out.WriteRune(c)
		}
	}
	line = strings.TrimSpace(out.String())
	return innerWhitespace.ReplaceAllString(line, " ")
}

// returns the visible text of the selection as trimmed, non-empty
// lines, in document order.
func Lines(sel *goquery.Selection) []string {
	var out []string
	for _, node := range sel.Nodes {
		raw := strings.Builder{}
		gatherText(node, &raw)
		for _, line := range strings.Split(raw.String(), "\n") {
			line = cleanLine(line)
			if line != "" {
				out = append(out, line)
			}
		}
	}
	return out
}

// the first visible line of the selection, or ""
func FirstLine(sel *goquery.Selection) string {
	lines := Lines(sel)
	if len(lines) == 0 {
		return ""
	}
	return lines[0]
}
