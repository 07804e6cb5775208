// Package consent implements the signed cookie that remembers which OAuth
// clients a browser has already approved. The cookie is the only persisted
// artifact: there is no server-side session table, so its integrity rests
// entirely on the HMAC-SHA256 signature.
package consent

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// CookieName is the name of the consent cookie.
const CookieName = "clickup_mcp_consent"

// CookieMaxAge is the consent cookie lifetime in seconds (one year).
const CookieMaxAge = 365 * 24 * 60 * 60

// Encode serializes the approved client id list to JSON, signs the JSON
// bytes with HMAC-SHA256, and returns the cookie value in the form
// <hex signature>.<base64url payload>.
//
// The signature covers the raw JSON bytes, never the base64 form; the
// base64 encoding exists only for cookie transport.
func Encode(clients []string, secret []byte) (string, error) {
	if clients == nil {
		clients = []string{}
	}
	payload, err := json.Marshal(clients)
	if err != nil {
		return "", fmt.Errorf("marshal consent list: %w", err)
	}
	return hex.EncodeToString(sign(payload, secret)) + "." + base64.RawURLEncoding.EncodeToString(payload), nil
}

// Decode verifies a cookie value and returns the approved client ids.
// It fails closed: a missing part, invalid hex or base64, signature
// mismatch, non-array payload, or non-string array element all yield
// (nil, false). It never returns an error because a corrupted cookie is
// equivalent to "never approved", not to a fault.
func Decode(value string, secret []byte) ([]string, bool) {
	sigHex, encoded, ok := strings.Cut(value, ".")
	if !ok || sigHex == "" || encoded == "" {
		return nil, false
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil || len(sig) != sha256.Size {
		return nil, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false
	}
	if !hmac.Equal(sig, sign(payload, secret)) {
		return nil, false
	}

	// A JSON null also unmarshals into a nil slice; only an actual
	// array is an acceptable payload.
	trimmed := bytes.TrimLeft(payload, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, false
	}
	clients := make([]string, 0, len(raw))
	for _, elem := range raw {
		var s string
		if err := json.Unmarshal(elem, &s); err != nil {
			return nil, false
		}
		clients = append(clients, s)
	}
	return clients, true
}

func sign(payload, secret []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload) //nolint:errcheck
	return mac.Sum(nil)
}
