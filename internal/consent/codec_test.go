package consent

import (
	"encoding/base64"
	"encoding/hex"
	"slices"
	"strings"
	"testing"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestEncodeDecodeRoundTrip(t *testing.T) {
	clients := []string{"client-a", "client-b"}

	value, err := Encode(clients, testSecret)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	sigHex, _, ok := strings.Cut(value, ".")
	if !ok {
		t.Fatalf("cookie value %q has no separator", value)
	}
	if len(sigHex) != 64 {
		t.Errorf("signature hex length = %d, want 64", len(sigHex))
	}

	got, ok := Decode(value, testSecret)
	if !ok {
		t.Fatal("Decode rejected a freshly signed value")
	}
	if !slices.Equal(got, clients) {
		t.Errorf("Decode = %v, want %v", got, clients)
	}
}

func TestDecodeWrongSecret(t *testing.T) {
	value, err := Encode([]string{"client-a"}, testSecret)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, ok := Decode(value, []byte("another-secret-another-secret-00")); ok {
		t.Error("Decode accepted a value signed with a different secret")
	}
}

func TestDecodeEmptyList(t *testing.T) {
	value, err := Encode(nil, testSecret)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, ok := Decode(value, testSecret)
	if !ok {
		t.Fatal("Decode rejected an empty list")
	}
	if len(got) != 0 {
		t.Errorf("Decode = %v, want empty", got)
	}
}

// signedValue builds a correctly signed cookie value over an arbitrary
// JSON payload, bypassing Encode's type safety.
func signedValue(t *testing.T, payload string) string {
	t.Helper()
	sig := sign([]byte(payload), testSecret)
	return hex.EncodeToString(sig) + "." + base64.RawURLEncoding.EncodeToString([]byte(payload))
}

func TestDecodeMalformed(t *testing.T) {
	valid, err := Encode([]string{"client-a"}, testSecret)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	sigHex, payload, _ := strings.Cut(valid, ".")

	cases := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"no separator", sigHex + payload},
		{"missing signature", "." + payload},
		{"missing payload", sigHex + "."},
		{"invalid hex", "zz" + sigHex[2:] + "." + payload},
		{"short signature", sigHex[:32] + "." + payload},
		{"invalid base64", sigHex + ".!!!not-base64!!!"},
		{"tampered payload", sigHex + "." + base64.RawURLEncoding.EncodeToString([]byte(`["evil"]`))},
		{"null payload", signedValue(t, `null`)},
		{"non-array payload", signedValue(t, `{"a":1}`)},
		{"scalar payload", signedValue(t, `"hello"`)},
		{"non-string element", signedValue(t, `["client-a", 42]`)},
		{"null element", signedValue(t, `["client-a", null]`)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got, ok := Decode(tc.value, testSecret); ok {
				t.Errorf("Decode(%q) accepted, got %v", tc.value, got)
			}
		})
	}
}

func TestSignatureCoversJSONBytesNotBase64(t *testing.T) {
	// Signing the base64 representation instead of the raw JSON bytes
	// would silently break cross-implementation compatibility.
	payload := []byte(`["client-a"]`)
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	wrong := hex.EncodeToString(sign([]byte(encoded), testSecret)) + "." + encoded
	if _, ok := Decode(wrong, testSecret); ok {
		t.Error("Decode accepted a signature computed over the base64 form")
	}
}
