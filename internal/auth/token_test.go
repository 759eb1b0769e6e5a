package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testCodec(t *testing.T, clock func() time.Time) *Codec {
	t.Helper()
	opts := []CodecOption{}
	if clock != nil {
		opts = append(opts, WithClock(clock))
	}
	codec, err := NewCodec([]byte("unit-test-secret"), "personweb-test", opts...)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec
}

func TestIssueAndDecodeRoundTrip(t *testing.T) {
	codec := testCodec(t, nil)

	token, expiresAt, err := codec.Issue("user-42", "alice", 30*time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiration, got %v", expiresAt)
	}

	claims, err := codec.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.Subject != "user-42" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Username != "alice" {
		t.Fatalf("unexpected username: %s", claims.Username)
	}
	if claims.Issuer != "personweb-test" {
		t.Fatalf("unexpected issuer: %s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatal("expected a token id claim")
	}
}

func TestDecodeExpiredToken(t *testing.T) {
	now := time.Now()
	codec := testCodec(t, func() time.Time { return now })

	token, _, err := codec.Issue("user-42", "alice", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Still valid just before the deadline.
	now = now.Add(59 * time.Minute)
	if _, err := codec.Decode(token); err != nil {
		t.Fatalf("expected valid token before expiry, got %v", err)
	}

	now = now.Add(2 * time.Hour)
	_, err = codec.Decode(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestDecodeTamperedSignature(t *testing.T) {
	codec := testCodec(t, nil)

	token, _, err := codec.Issue("user-42", "alice", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Flip one byte inside the signature segment.
	idx := strings.LastIndex(token, ".") + 1
	sig := []byte(token[idx:])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := token[:idx] + string(sig)

	_, err = codec.Decode(tampered)
	if !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestDecodeMalformedToken(t *testing.T) {
	codec := testCodec(t, nil)

	for _, token := range []string{"", "   ", "garbage", "a.b", "a.b.c.d"} {
		if _, err := codec.Decode(token); !errors.Is(err, ErrMalformedToken) {
			t.Fatalf("Decode(%q): expected ErrMalformedToken, got %v", token, err)
		}
	}
}

func TestDecodeRejectsForeignIssuer(t *testing.T) {
	other, err := NewCodec([]byte("unit-test-secret"), "someone-else")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	token, _, err := other.Issue("user-42", "alice", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	codec := testCodec(t, nil)
	if _, err := codec.Decode(token); !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken for wrong issuer, got %v", err)
	}
}

func TestIssueRejectsBadInput(t *testing.T) {
	codec := testCodec(t, nil)

	if _, _, err := codec.Issue("", "alice", time.Hour); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty subject, got %v", err)
	}
	if _, _, err := codec.Issue("user-42", "alice", 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero ttl, got %v", err)
	}
}
