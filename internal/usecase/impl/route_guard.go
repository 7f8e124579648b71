package impl

import (
	"etuition/internal/domain/entity"
	"etuition/internal/usecase"
)

// DecideIdentity guards a route that requires a signed-in identity.
// Unauthenticated visitors are sent to redirectPath with the attempted location
// in the navigation state.
func DecideIdentity(session entity.Session, location entity.Location, redirectPath string) entity.Decision {
	if session.IsLoading {
		return entity.Decision{Kind: entity.DecisionLoading}
	}
	if session.SignedIn() {
		return entity.Decision{Kind: entity.DecisionRender}
	}

	return entity.Decision{
		Kind:   entity.DecisionRedirect,
		Target: redirectPath,
		State:  map[string]string{entity.StateKeyFrom: location.Path},
	}
}

// DecideRole guards a route that requires a role. A role mismatch renders the
// forbidden view in place; the location is left unchanged.
func DecideRole(
	session entity.Session,
	role usecase.RoleState,
	required entity.Role,
	location entity.Location,
	redirectPath string,
) entity.Decision {
	if session.IsLoading || role.IsLoading {
		return entity.Decision{Kind: entity.DecisionLoading}
	}

	if decision := DecideIdentity(session, location, redirectPath); decision.Kind != entity.DecisionRender {
		return decision
	}

	if !role.Value.Matches(required) {
		return entity.Decision{Kind: entity.DecisionForbidden}
	}

	return entity.Decision{Kind: entity.DecisionRender}
}
