package consent

import (
	"fmt"
	"net/http"
	"slices"
)

// IsApproved reports whether the request carries a valid consent cookie
// that already lists clientID. Every decode or verification failure is
// observed as "not approved"; the caller re-prompts the user.
func IsApproved(r *http.Request, clientID string, secret []byte) bool {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	return Approved(c.Value, clientID, secret)
}

// Approved checks a raw cookie value for clientID.
func Approved(cookieValue, clientID string, secret []byte) bool {
	clients, ok := Decode(cookieValue, secret)
	if !ok {
		return false
	}
	return slices.Contains(clients, clientID)
}

// Approval is the outcome of a recorded consent: the updated client list
// and the Set-Cookie to send back.
type Approval struct {
	Request AuthRequest
	Clients []string
	Cookie  *http.Cookie
}

// RecordApproval handles a consent form POST. The request must carry the
// opaque state blob embedding the pending authorization request; any
// decode failure there is a hard error because it indicates a broken
// redirect chain rather than user input. The existing consent list is
// read through the same fail-closed decode path (a missing or invalid
// cookie is treated as an empty list), the approved client id is unioned
// in, and the result is re-signed.
func RecordApproval(r *http.Request, secret []byte) (*Approval, error) {
	if r.Method != http.MethodPost {
		return nil, fmt.Errorf("record approval: method %s not allowed", r.Method)
	}
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("record approval: parse form: %w", err)
	}
	req, err := DecodeState(r.PostFormValue("state"))
	if err != nil {
		return nil, fmt.Errorf("record approval: %w", err)
	}

	var clients []string
	if c, cerr := r.Cookie(CookieName); cerr == nil {
		clients, _ = Decode(c.Value, secret)
	}
	if !slices.Contains(clients, req.ClientID) {
		clients = append(clients, req.ClientID)
	}
	slices.Sort(clients)

	value, err := Encode(clients, secret)
	if err != nil {
		return nil, fmt.Errorf("record approval: %w", err)
	}
	return &Approval{
		Request: req,
		Clients: clients,
		Cookie: &http.Cookie{
			Name:     CookieName,
			Value:    value,
			Path:     "/",
			MaxAge:   CookieMaxAge,
			Secure:   true,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	}, nil
}
