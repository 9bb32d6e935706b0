package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "test-secret"

func testClaims() TokenClaims {
	return TokenClaims{
		Sub:    "acct-1",
		Email:  "budi@example.com",
		Phone:  "+628123456789",
		Exp:    time.Now().Add(time.Hour).Unix(),
		Issuer: "identity",
	}
}

func TestVerifyJWTRoundTrip(t *testing.T) {
	token, err := SignJWT(testSecret, testClaims())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := VerifyJWT(testSecret, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Sub != "acct-1" || claims.Email != "budi@example.com" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestVerifyJWTRejects(t *testing.T) {
	valid, _ := SignJWT(testSecret, testClaims())

	expired := testClaims()
	expired.Exp = time.Now().Add(-time.Minute).Unix()
	expiredToken, _ := SignJWT(testSecret, expired)

	noSub := testClaims()
	noSub.Sub = ""
	noSubToken, _ := SignJWT(testSecret, noSub)

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"wrong secret", "other-secret", valid},
		{"malformed", testSecret, "not.a.token.at.all"},
		{"tampered signature", testSecret, valid[:len(valid)-2] + "xx"},
		{"expired", testSecret, expiredToken},
		{"missing subject", testSecret, noSubToken},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := VerifyJWT(tc.secret, tc.token); err == nil {
				t.Fatal("expected verification to fail")
			}
		})
	}
}

func TestAuthJWTMiddleware(t *testing.T) {
	var gotAccount string
	h := AuthJWT(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccount = AccountIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing header", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rr.Code)
		}
	})

	t.Run("wrong scheme", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Basic abc")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rr.Code)
		}
	})

	t.Run("valid bearer token", func(t *testing.T) {
		token, err := SignJWT(testSecret, testClaims())
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		if gotAccount != "acct-1" {
			t.Fatalf("account = %q, want acct-1", gotAccount)
		}
	})
}
