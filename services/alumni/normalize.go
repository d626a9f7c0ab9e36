package alumni

import (
	"database/sql"
	"strconv"
	"strings"

	"alumnisync-backend/lib/scrapers/linkedin"
)

// degree markers written by the bulk import path for people who have
// been imported but never visited. recognized on read so progress math
// and status classification stay correct, never written by this
// service.
const (
	DegreePending       = "Importé via Excel"
	degreePendingLegacy = "Non spécifié"
)

func PendingMarkers() []string {
	return []string{DegreePending, degreePendingLegacy}
}

type DegreeStatus int

const (
	// no degree recorded at all
	DegreeUnknown DegreeStatus = iota
	// imported in bulk, no extraction pass has visited the profile yet
	DegreePendingScan
	// a pass visited the profile and found no qualifying program
	DegreeMissing
	// a real qualification string
	DegreeKnown
)

func (s DegreeStatus) String() string {
	switch s {
	case DegreePendingScan:
		return "pending"
	case DegreeMissing:
		return "not found"
	case DegreeKnown:
		return "known"
	}
	return "unknown"
}

func ClassifyDegree(degree sql.NullString) DegreeStatus {
	if !degree.Valid || degree.String == "" {
		return DegreeUnknown
	}
	switch degree.String {
	case DegreePending, degreePendingLegacy:
		return DegreePendingScan
	case linkedin.DegreeNotFound:
		return DegreeMissing
	}
	return DegreeKnown
}

// first token becomes the first name, everything after it the last
// name. a single-token name is stored as a first name only.
func SplitName(full string) (first, last string) {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// years arrive as JSON numbers, numeric strings or garbage depending
// on which extraction produced them. anything unparseable is absent,
// not zero.
func ParseYear(v any) (int64, bool) {
	switch year := v.(type) {
	case nil:
		return 0, false
	case float64:
		if year <= 0 {
			return 0, false
		}
		return int64(year), true
	case int:
		if year <= 0 {
			return 0, false
		}
		return int64(year), true
	case int64:
		if year <= 0 {
			return 0, false
		}
		return year, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(year), 10, 64)
		if err != nil || n <= 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
