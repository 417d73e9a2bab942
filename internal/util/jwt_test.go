package util

import (
	"testing"
	"time"
)

func TestGenerateParseToken(t *testing.T) {
	token, err := GenerateToken("secret", "time-ledger", 42, "sess-1", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != 42 || claims.ID != "sess-1" || claims.Issuer != "time-ledger" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret", "", 1, "s", time.Hour)
	if _, err := ParseToken("other", token); err == nil {
		t.Error("ParseToken with wrong secret error = nil, want error")
	}
}

func TestParseToken_Expired(t *testing.T) {
	token, _ := GenerateToken("secret", "", 1, "s", -time.Hour)
	// non-positive ttl falls back to 24h
	if _, err := ParseToken("secret", token); err != nil {
		t.Errorf("ParseToken(default ttl) error = %v", err)
	}
}
