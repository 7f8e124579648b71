package entity

// DecisionKind is the outcome of a route guard.
type DecisionKind int

const (
	// DecisionLoading renders the loading indicator; the guard is re-evaluated on the next render.
	DecisionLoading DecisionKind = iota
	// DecisionRender renders the protected content.
	DecisionRender
	// DecisionRedirect navigates to Decision.Target.
	DecisionRedirect
	// DecisionForbidden renders the forbidden view in place.
	DecisionForbidden
)

// String returns a label suitable for logs and metrics.
func (k DecisionKind) String() string {
	switch k {
	case DecisionLoading:
		return "loading"
	case DecisionRender:
		return "render"
	case DecisionRedirect:
		return "redirect"
	case DecisionForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// StateKeyFrom is the navigation state key holding the attempted location.
const StateKeyFrom = "from"

// Decision is computed per render from the session and role state.
type Decision struct {
	Kind   DecisionKind
	Target string            // Redirect target, set only for DecisionRedirect.
	State  map[string]string // Navigation state carried with the redirect.
}

// Location is an entry of the navigation history.
type Location struct {
	Path  string
	State map[string]string
}
