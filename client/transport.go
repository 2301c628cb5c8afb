package client

import (
	"io"
	"net/http"
)

// Transport is an http.RoundTripper that attaches the session's bearer
// token to every request. When the server answers 401 or 403 the session is
// torn down (at most once per session generation) and ErrSessionInvalid is
// returned so callers do not blindly retry with a dead token.
type Transport struct {
	// Session supplies the token and absorbs invalidation.
	Session *SessionStore
	// Base is the underlying transport, http.DefaultTransport when nil.
	Base http.RoundTripper
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	gen := t.Session.currentGeneration()

	// Per RoundTripper contract the request must not be mutated.
	cloned := req.Clone(req.Context())
	if token := t.Session.Token(); token != "" {
		cloned.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base().RoundTrip(cloned)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		t.Session.invalidate(req.Context(), gen)
		return nil, ErrSessionInvalid
	}

	return resp, nil
}
