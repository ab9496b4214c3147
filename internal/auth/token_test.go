package auth

import "testing"

func TestGenerateAndParseToken(t *testing.T) {
	tm := NewTokenManager("unit-test-secret", 60)

	token, expiresAt, err := tm.GenerateToken("agent-1", "agent@example.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if token == "" || expiresAt.IsZero() {
		t.Fatalf("expected token and expiry, got %q %v", token, expiresAt)
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.AgentID != "agent-1" || claims.Email != "agent@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenManagerDisabledWithoutSecret(t *testing.T) {
	tm := NewTokenManager("", 60)
	if tm.Enabled() {
		t.Fatalf("expected auth disabled without secret")
	}
	if _, _, err := tm.GenerateToken("agent-1", "agent@example.com"); err == nil {
		t.Fatalf("expected error issuing token without secret")
	}
}

func TestParseRejectsTokenFromOtherSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", 60)
	verifier := NewTokenManager("secret-b", 60)

	token, _, err := issuer.GenerateToken("agent-1", "agent@example.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatalf("expected signature mismatch to fail")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hasher := NewPasswordHasher(4)
	hashed, err := hasher.Hash("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := hasher.Verify(hashed, "s3cret"); err != nil {
		t.Fatalf("expected password to match: %v", err)
	}
	if err := hasher.Verify(hashed, "wrong"); err == nil {
		t.Fatalf("expected mismatch to fail")
	}
}

func TestPasswordHasherClampsInvalidCost(t *testing.T) {
	// out-of-range costs fall back to the bcrypt default instead of
	// failing every login
	hasher := NewPasswordHasher(99)
	hashed, err := hasher.Hash("s3cret")
	if err != nil {
		t.Fatalf("hash with clamped cost: %v", err)
	}
	if err := hasher.Verify(hashed, "s3cret"); err != nil {
		t.Fatalf("verify: %v", err)
	}
}
