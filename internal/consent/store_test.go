package consent

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"testing"
)

func approvalRequest(t *testing.T, state string, cookie *http.Cookie) *http.Request {
	t.Helper()
	form := url.Values{}
	if state != "" {
		form.Set("state", state)
	}
	r := httptest.NewRequest(http.MethodPost, "/authorize", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		r.AddCookie(cookie)
	}
	return r
}

func mustState(t *testing.T, clientID string) string {
	t.Helper()
	blob, err := EncodeState(AuthRequest{ClientID: clientID, RedirectURI: "https://example.com/cb"})
	if err != nil {
		t.Fatalf("EncodeState: %v", err)
	}
	return blob
}

func TestIsApprovedNoCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/authorize", nil)
	if IsApproved(r, "client-a", testSecret) {
		t.Error("IsApproved = true without a cookie")
	}
}

func TestRecordApprovalFirstClient(t *testing.T) {
	approval, err := RecordApproval(approvalRequest(t, mustState(t, "client-a"), nil), testSecret)
	if err != nil {
		t.Fatalf("RecordApproval: %v", err)
	}
	if !slices.Equal(approval.Clients, []string{"client-a"}) {
		t.Errorf("Clients = %v, want [client-a]", approval.Clients)
	}
	if approval.Request.RedirectURI != "https://example.com/cb" {
		t.Errorf("RedirectURI = %q", approval.Request.RedirectURI)
	}

	c := approval.Cookie
	if c.Name != CookieName || !c.HttpOnly || !c.Secure || c.Path != "/" || c.SameSite != http.SameSiteLaxMode || c.MaxAge != 31536000 {
		t.Errorf("cookie attributes wrong: %+v", c)
	}

	r := httptest.NewRequest(http.MethodGet, "/authorize", nil)
	r.AddCookie(c)
	if !IsApproved(r, "client-a", testSecret) {
		t.Error("IsApproved = false after approval")
	}
	if IsApproved(r, "client-b", testSecret) {
		t.Error("IsApproved = true for a never-approved client")
	}
}

func TestRecordApprovalIdempotentUnion(t *testing.T) {
	first, err := RecordApproval(approvalRequest(t, mustState(t, "client-a"), nil), testSecret)
	if err != nil {
		t.Fatalf("first approval: %v", err)
	}
	second, err := RecordApproval(approvalRequest(t, mustState(t, "client-a"), first.Cookie), testSecret)
	if err != nil {
		t.Fatalf("second approval: %v", err)
	}
	if !slices.Equal(second.Clients, first.Clients) {
		t.Errorf("repeat approval changed the list: %v vs %v", second.Clients, first.Clients)
	}
	if second.Cookie.Value != first.Cookie.Value {
		t.Errorf("repeat approval changed the cookie value")
	}
}

func TestRecordApprovalGrowsList(t *testing.T) {
	first, err := RecordApproval(approvalRequest(t, mustState(t, "client-b"), nil), testSecret)
	if err != nil {
		t.Fatalf("first approval: %v", err)
	}
	second, err := RecordApproval(approvalRequest(t, mustState(t, "client-a"), first.Cookie), testSecret)
	if err != nil {
		t.Fatalf("second approval: %v", err)
	}
	if !slices.Equal(second.Clients, []string{"client-a", "client-b"}) {
		t.Errorf("Clients = %v, want [client-a client-b]", second.Clients)
	}
}

func TestRecordApprovalTamperedCookieTreatedAsEmpty(t *testing.T) {
	bad := &http.Cookie{Name: CookieName, Value: "deadbeef.bm90LXZhbGlk"}
	approval, err := RecordApproval(approvalRequest(t, mustState(t, "client-a"), bad), testSecret)
	if err != nil {
		t.Fatalf("RecordApproval: %v", err)
	}
	if !slices.Equal(approval.Clients, []string{"client-a"}) {
		t.Errorf("Clients = %v, want [client-a]", approval.Clients)
	}
}

func TestRecordApprovalHardFailures(t *testing.T) {
	cases := []struct {
		name string
		req  *http.Request
	}{
		{"GET method", httptest.NewRequest(http.MethodGet, "/authorize", nil)},
		{"missing state", approvalRequest(t, "", nil)},
		{"garbled state", approvalRequest(t, "!!!not-base64!!!", nil)},
		{"state without client id", approvalRequest(t, mustOpaque(t, `{"redirect_uri":"x"}`), nil)},
		{"state not json", approvalRequest(t, mustOpaque(t, `hello`), nil)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := RecordApproval(tc.req, testSecret); err == nil {
				t.Error("RecordApproval succeeded, want error")
			}
		})
	}
}

func mustOpaque(t *testing.T, raw string) string {
	t.Helper()
	return base64RawURL(raw)
}
