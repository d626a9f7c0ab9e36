package linkedin

import (
	"context"
	"strings"
)

// a single observation of a person, produced by one extraction pass.
// optional fields are zero-valued when the page didn't expose them.
type Profile struct {
	FullName        string `json:"fullName"`
	ProfileURL      string `json:"linkedinUrl"`
	AvatarURL       string `json:"profileImageUrl,omitempty"`
	DegreeText      string `json:"degree,omitempty"`
	EntryYear       int    `json:"entryYear,omitempty"`
	GradYear        int    `json:"gradYear,omitempty"`
	CurrentCompany  string `json:"currentCompany,omitempty"`
	CurrentJobTitle string `json:"currentJobTitle,omitempty"`
	CompanyLogoURL  string `json:"companyLogo,omitempty"`
	Email           string `json:"email,omitempty"`
}

// written to the degree field when a profile was visited but no
// qualifying program was found. distinct from the "imported, not yet
// scanned" marker owned by the import path, the two must never be
// conflated downstream.
const DegreeNotFound = "Parcours non trouvé"

// the profile url is the identity of a person: every observation with
// the same normalized url refers to the same entity. normalization
// strips the query string and fragment (tracking junk) and pins
// exactly one trailing slash, and is a fixed point.
func NormalizeProfileURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimRight(raw, "/") + "/"
}

type SinkResult struct {
	Succeeded int
	Failed    int
}

// Sink receives extracted batches and stores them durably. a non-nil
// error means the whole batch was lost; per-record failures are
// reported through SinkResult instead.
type Sink interface {
	Reconcile(ctx context.Context, records []Profile) (SinkResult, error)
}
