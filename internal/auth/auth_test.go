package auth

import (
	"net/http/httptest"
	"testing"
)

func TestPasswordHashing(t *testing.T) {
	a := New("secret", 60)

	hash, err := a.HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "hunter22" {
		t.Fatalf("hash equals plaintext")
	}
	if !a.CheckPassword(hash, "hunter22") {
		t.Errorf("correct password rejected")
	}
	if a.CheckPassword(hash, "hunter23") {
		t.Errorf("wrong password accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	a := New("secret", 60)

	token, err := a.GenerateToken("user-1", "u@example.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := a.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "u@example.com" {
		t.Errorf("claims = %+v", claims)
	}

	t.Run("wrong secret rejected", func(t *testing.T) {
		other := New("different", 60)
		if _, err := other.ValidateToken(token); err == nil {
			t.Errorf("token accepted across secrets")
		}
	})

	t.Run("expired token rejected", func(t *testing.T) {
		expired := New("secret", -1)
		tok, err := expired.GenerateToken("user-1", "u@example.com")
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		if _, err := a.ValidateToken(tok); err == nil {
			t.Errorf("expired token accepted")
		}
	})
}

func TestExtractClaims(t *testing.T) {
	a := New("secret", 60)
	token, err := a.GenerateToken("user-1", "u@example.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	cases := []struct {
		name   string
		header string
		want   bool
	}{
		{"valid bearer", "Bearer " + token, true},
		{"case-insensitive scheme", "bearer " + token, true},
		{"missing header", "", false},
		{"wrong scheme", "Basic " + token, false},
		{"garbage token", "Bearer nope", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			claims := a.ExtractClaims(r)
			if (claims != nil) != tc.want {
				t.Errorf("claims = %v, want present=%v", claims, tc.want)
			}
		})
	}
}
