package client

import "net/url"

// Decision is the outcome of a route guard check.
type Decision int

const (
	// Pending means the session is still being verified; hold the route.
	Pending Decision = iota
	// Allowed means a verified user is present.
	Allowed
	// RedirectToLogin means there is no session; send the user to login.
	RedirectToLogin
)

// GuardResult carries the guard decision plus the login URL to use when
// redirecting. The requested path rides along so the user lands back where
// they were headed after logging in.
type GuardResult struct {
	Decision Decision
	// RedirectURL is set only for RedirectToLogin.
	RedirectURL string
}

// Guard decides whether a protected route may render for the current
// session state.
func Guard(s *SessionStore, requestedPath string) GuardResult {
	state := s.State()

	if state.Loading {
		return GuardResult{Decision: Pending}
	}
	if state.User != nil {
		return GuardResult{Decision: Allowed}
	}

	login := "/login"
	if requestedPath != "" && requestedPath != "/" {
		login += "?from=" + url.QueryEscape(requestedPath)
	}
	return GuardResult{Decision: RedirectToLogin, RedirectURL: login}
}
