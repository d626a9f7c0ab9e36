package linkedin

// LinkedIn page selectors. These WILL break when LinkedIn changes its
// markup, inspect the live pages in devtools to verify/update. kept in
// one place so a markup change is a config edit, not an archeology dig
// through the extraction code.

const (
	urlLogin = "https://www.linkedin.com/login"
	urlFeed  = "https://www.linkedin.com/feed/"

	// login form
	selectorLoginUser   = "#username"
	selectorLoginPass   = "#password"
	selectorLoginSubmit = `button[type="submit"]`

	// visible once a session is authenticated
	selectorSearchInput = "input.search-global-typeahead__input"

	// results page
	selectorProfileAnchor = `a[href*="/in/"]`
	selectorCardContainer = "li, .reusable-search__result-container, .flex"
	selectorResultsHeader = ".search-results-container h2, .pb-2"

	// pagination
	selectorNextVisible = `[data-testid="pagination-controls-next-button-visible"]`
	selectorNextAria    = `button[aria-label="Suivant"], button[aria-label="Next"]`

	// profile page
	selectorHeadline       = ".text-body-medium.break-words"
	selectorExperienceItem = "li.pvs-list__paged-list-item"
	selectorExpTitle       = `.hoverable-link-text.t-bold span[aria-hidden="true"]`
	selectorExpCompany     = `.t-14.t-normal span[aria-hidden="true"]`
	selectorExpLogo        = "img.ivm-view-attr__img--centered"
	selectorEduSection     = "#education"
	selectorEduSchool      = `.hoverable-link-text.t-bold span[aria-hidden="true"]`
	selectorEduDegree      = `.t-14.t-normal span[aria-hidden="true"]`
	selectorEduCaption     = `.pvs-entity__caption-wrapper, .t-14.t-normal.t-black--light span[aria-hidden="true"]`
)

// top-card photo variants, first match wins
var avatarSelectors = []string{
	".pv-top-card-profile-picture__image--show",
	".pv-top-card__photo img",
	"img.pv-top-card-profile-picture__image",
}

// an <img> whose src matches one of these is not a real photo
var placeholderAvatarPatterns = []string{
	"ghost-person",
	"data:image/gif",
}

// anchor paths that match the profile pattern but are not people
var nonProfilePathPatterns = []string{
	"/company/",
	"/school/",
}

// substrings that mark an anchor's text as UI chrome, not a name
var nameChromePatterns = []string{
	"LinkedIn",
	"relation",
}

// labels of card action buttons, never a role/degree line
var actionLabels = []string{
	"Se connecter",
	"Connect",
	"Suivre",
	"Follow",
	"Message",
	"S'abonner",
}

// substrings marking follower/subscriber-count noise in degree text
var followerNoisePatterns = []string{
	"abonnés",
	"followers",
}

// url path fragments of the login verification flow
var challengePathPatterns = []string{
	"/checkpoint/",
	"/challenge",
}
