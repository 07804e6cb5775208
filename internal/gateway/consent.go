package gateway

import (
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/mattyatea/ClickUp-MCP/internal/consent"
	"github.com/mattyatea/ClickUp-MCP/internal/storage"
)

// providerAuthorizeURL is ClickUp's OAuth authorization page.
const providerAuthorizeURL = "https://app.clickup.com/api"

var consentPage = template.Must(template.New("consent").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Authorize access</title></head>
<body>
<h1>Authorize access to your ClickUp data</h1>
<p>The application <strong>{{.ClientID}}</strong> is requesting access to
your ClickUp workspaces through this server.</p>
<form method="post" action="/authorize">
<input type="hidden" name="state" value="{{.State}}">
<button type="submit">Approve</button>
</form>
</body>
</html>
`))

var completionPage = template.Must(template.New("done").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Authorization complete</title></head>
<body>
<h1>Authorization complete</h1>
<p>Configure your MCP client with this bearer token:</p>
<pre>{{.Bearer}}</pre>
<p>You can close this window.</p>
</body>
</html>
`))

// handleAuthorize starts the consent flow. A client the cookie already
// approves skips the page and goes straight to the provider.
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := consent.AuthRequest{
		ClientID:    q.Get("client_id"),
		RedirectURI: q.Get("redirect_uri"),
		Scope:       q.Get("scope"),
		State:       q.Get("state"),
	}
	blob, err := consent.EncodeState(req)
	if err != nil {
		http.Error(w, "client_id is required", http.StatusBadRequest)
		return
	}

	if consent.IsApproved(r, req.ClientID, s.consentSecret) {
		s.redirectToProvider(w, r, blob)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := consentPage.Execute(w, map[string]string{
		"ClientID": req.ClientID,
		"State":    blob,
	}); err != nil {
		s.logger.Error("render consent page", "error", err)
	}
}

// handleApprove records the consent decision and forwards to the
// provider. A garbled state blob is a hard 400; it means the redirect
// chain is broken, not that the user declined.
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	approval, err := consent.RecordApproval(r, s.consentSecret)
	if err != nil {
		s.logger.Warn("consent approval rejected", "error", err)
		http.Error(w, "invalid consent request", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, approval.Cookie)

	blob, err := consent.EncodeState(approval.Request)
	if err != nil {
		http.Error(w, "invalid consent request", http.StatusBadRequest)
		return
	}
	s.redirectToProvider(w, r, blob)
}

// handleCallback finishes the flow: the provider code is exchanged for a
// ClickUp token, an opaque bearer is minted over it, and the bearer is
// shown to the user.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if _, err := consent.DecodeState(q.Get("state")); err != nil {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}
	code := q.Get("code")
	if code == "" {
		http.Error(w, "missing code", http.StatusBadRequest)
		return
	}

	accessToken, err := s.exchanger.ExchangeCode(r.Context(), s.clientID, s.clientSecret, code)
	if err != nil {
		s.logger.Error("code exchange failed", "error", err)
		http.Error(w, "code exchange failed", http.StatusBadGateway)
		return
	}

	bearer := uuid.NewString()
	record := storage.TokenRecord{
		AccessToken: accessToken,
		ClientID:    s.clientID,
		ObtainedAt:  time.Now().UTC(),
	}
	if err := s.tokens.Put(r.Context(), bearer, record, s.tokenTTL); err != nil {
		s.logger.Error("persist bearer failed", "error", err)
		http.Error(w, "could not persist credential", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := completionPage.Execute(w, map[string]string{"Bearer": bearer}); err != nil {
		s.logger.Error("render completion page", "error", err)
	}
}

// redirectToProvider sends the browser to ClickUp's authorize page with
// our callback as the redirect target and the opaque blob as state.
func (s *Server) redirectToProvider(w http.ResponseWriter, r *http.Request, blob string) {
	params := url.Values{}
	params.Set("client_id", s.clientID)
	params.Set("redirect_uri", s.publicBaseURL+"/callback")
	params.Set("state", blob)
	http.Redirect(w, r, providerAuthorizeURL+"?"+params.Encode(), http.StatusFound)
}
