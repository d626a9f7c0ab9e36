package linkedin

import (
	"context"
	"log/slog"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all" // register all browser cookie stores
)

// the cookies that carry a linkedin session
var essentialCookies = []string{"li_at", "JSESSIONID", "lidc", "bcookie"}

// BrowserCookies reads an existing linkedin session out of the local
// browser's cookie store, which lets a scan reuse the operator's
// logged-in session instead of submitting credentials. returns nil
// when no usable session is present, that is not an error.
func BrowserCookies(ctx context.Context) map[string]string {
	kookies, err := kooky.ReadCookies(ctx, kooky.Valid, kooky.DomainHasSuffix("linkedin.com"))
	if err != nil {
		slog.Debug("failed to read browser cookies", "err", err)
		return nil
	}

	found := map[string]string{}
	for _, c := range kookies {
		for _, name := range essentialCookies {
			if c.Name == name && c.Value != "" {
				found[name] = c.Value
			}
		}
	}
	// without the auth token the rest is useless
	if found["li_at"] == "" {
		return nil
	}
	return found
}
