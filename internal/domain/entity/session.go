package entity

// Session is a snapshot of the authentication state.
type Session struct {
	Identity  *Identity // nil when signed out.
	IsLoading bool      // true while an identity operation or the initial observer report is pending.
}

// SignedIn reports whether an identity is present.
func (s Session) SignedIn() bool {
	return s.Identity != nil
}

// Email returns the normalized email of the signed-in identity, or "".
func (s Session) Email() string {
	return s.Identity.NormalizedEmail()
}
