package consent

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// AuthRequest is the pending authorization request carried through the
// consent page and the provider redirect as an opaque state blob.
type AuthRequest struct {
	ClientID    string `json:"client_id"`
	RedirectURI string `json:"redirect_uri,omitempty"`
	Scope       string `json:"scope,omitempty"`
	State       string `json:"state,omitempty"`
}

// EncodeState serializes an AuthRequest into the opaque state blob
// (base64url over JSON).
func EncodeState(req AuthRequest) (string, error) {
	if strings.TrimSpace(req.ClientID) == "" {
		return "", fmt.Errorf("encode state: client_id is required")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(payload), nil
}

// DecodeState parses a state blob back into an AuthRequest. Unlike the
// cookie codec this is a hard-failure path: a garbled blob means the
// redirect chain is broken, and authorization must not proceed on a
// client id we cannot trust.
func DecodeState(blob string) (AuthRequest, error) {
	if strings.TrimSpace(blob) == "" {
		return AuthRequest{}, fmt.Errorf("decode state: empty blob")
	}
	payload, err := base64.RawURLEncoding.DecodeString(blob)
	if err != nil {
		return AuthRequest{}, fmt.Errorf("decode state: invalid base64: %w", err)
	}
	var req AuthRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return AuthRequest{}, fmt.Errorf("decode state: invalid JSON: %w", err)
	}
	if strings.TrimSpace(req.ClientID) == "" {
		return AuthRequest{}, fmt.Errorf("decode state: missing client_id")
	}
	return req, nil
}
