package auth

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHMAC_RoundTrip(t *testing.T) {
	t.Parallel()
	h, err := NewHMAC([]byte("s3cret"), WithIssuer("contractkit"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	tok, err := h.Issue("user-1", "acct-9")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if strings.Count(tok, ".") != 2 {
		t.Fatalf("not a compact JWT: %q", tok)
	}
	claims, err := h.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-1" || claims.AccountID != "acct-9" || claims.Issuer != "contractkit" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestHMAC_Rejects(t *testing.T) {
	t.Parallel()
	good, _ := NewHMAC([]byte("one"), WithIssuer("a"))
	other, _ := NewHMAC([]byte("two"), WithIssuer("a"))
	wrongIss, _ := NewHMAC([]byte("one"), WithIssuer("b"))
	expired, _ := NewHMAC([]byte("one"), WithIssuer("a"), WithTTL(-time.Minute))

	tok, _ := good.Issue("u", "")
	old, _ := expired.Issue("u", "")

	cases := map[string]struct {
		v   Verifier
		tok string
	}{
		"wrong secret": {other, tok},
		"wrong issuer": {wrongIss, tok},
		"expired":      {good, old},
		"garbage":      {good, "not-a-token"},
	}
	for name, tc := range cases {
		if _, err := tc.v.Verify(tc.tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestNewHMAC_EmptySecret(t *testing.T) {
	t.Parallel()
	if _, err := NewHMAC(nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest("GET", "/", nil)
	if _, ok := BearerToken(r); ok {
		t.Fatalf("no header should yield no token")
	}
	r.Header.Set("Authorization", "bearer abc")
	if tok, ok := BearerToken(r); !ok || tok != "abc" {
		t.Fatalf("got %q %v", tok, ok)
	}
	r.Header.Set("Authorization", "Basic abc")
	if _, ok := BearerToken(r); ok {
		t.Fatalf("basic auth accepted")
	}
}
