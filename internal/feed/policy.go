package feed

// PageSize is the fixed posts-search page size used by the controller
const PageSize = 5

// Post caps per viewer tier. Zero means unlimited.
const (
	anonymousPostLimit  = 6
	incompletePostLimit = 6
	memberPostLimit     = 10
	noPostLimit         = 0
)

// ModalType identifies the gating interstitial the UI should render when
// the viewer's cap is reached.
type ModalType string

const (
	ModalNone    ModalType = ""
	ModalSignup  ModalType = "signup"
	ModalPremium ModalType = "premium"
)

// PostLimitFor returns the feed post cap for the viewer's tier. Subscribers
// see everything; members with a complete profile get a taste of the full
// feed; anonymous viewers and members who have not finished onboarding get
// the preview limit.
func PostLimitFor(v *Viewer) int {
	switch {
	case v == nil:
		return anonymousPostLimit
	case v.Subscribed:
		return noPostLimit
	case v.ProfileCompleted:
		return memberPostLimit
	default:
		return incompletePostLimit
	}
}

// ModalTypeFor selects the gating modal for a capped viewer. Signed-out
// viewers and members with incomplete profiles are pushed to sign up /
// finish onboarding; complete non-subscribers are pitched premium.
// Subscribers have no cap and never see a modal.
func ModalTypeFor(v *Viewer) ModalType {
	switch {
	case v == nil:
		return ModalSignup
	case v.Subscribed:
		return ModalNone
	case !v.ProfileCompleted:
		return ModalSignup
	default:
		return ModalPremium
	}
}

// CanUseFilters reports whether the viewer may change feed filters.
// Filter access is a premium feature.
func CanUseFilters(v *Viewer) bool {
	return v != nil && v.Subscribed
}
