package linkedin

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Session is the capability surface the navigator drives: one logical
// browser tab. implementations are NOT safe for concurrent calls, the
// navigator is a single sequential control flow on purpose.
//
// extraction never touches the session directly, it consumes immutable
// DOM snapshots (HTML -> goquery), which keeps the field extractor a
// pure function over markup and the navigator testable against an
// in-memory session.
type Session interface {
	// load a url and wait for the document to be ready
	Navigate(ctx context.Context, url string) error
	// the current page url
	Location(ctx context.Context) (string, error)
	// snapshot of the rendered DOM
	HTML(ctx context.Context) (string, error)
	ScrollTo(ctx context.Context, y int) error
	// click the first element matching the selector
	Click(ctx context.Context, selector string) error
	// set the value of the first element matching the selector
	Fill(ctx context.Context, selector, value string) error
	// whether an element matching the selector is currently rendered
	Visible(ctx context.Context, selector string) (bool, error)
	// install session cookies for the target domain
	SetCookies(ctx context.Context, cookies map[string]string) error
	Close(ctx context.Context) error
}

func snapshot(ctx context.Context, s Session) (*goquery.Document, error) {
	html, err := s.HTML(ctx)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}
