package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTokenAuthenticatorSignIn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/session" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := NewTokenAuthenticator(srv.URL, "good-token")
	if a.IsSignedIn(context.Background()) {
		t.Error("must not be signed in before SignIn")
	}
	if err := a.SignIn(context.Background()); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if !a.IsSignedIn(context.Background()) {
		t.Error("should be signed in after successful SignIn")
	}
}

func TestTokenAuthenticatorRejectsBadToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := NewTokenAuthenticator(srv.URL, "bad-token")
	if err := a.SignIn(context.Background()); err == nil {
		t.Error("expected error for rejected token")
	}
	if a.IsSignedIn(context.Background()) {
		t.Error("must not be signed in after rejection")
	}
}

func TestTokenAuthenticatorRequiresToken(t *testing.T) {
	a := NewTokenAuthenticator("http://localhost:0", "")
	if err := a.SignIn(context.Background()); err == nil {
		t.Error("expected error with no token configured")
	}
}

func TestStatic(t *testing.T) {
	var a Authenticator = Static{}
	if !a.IsSignedIn(context.Background()) {
		t.Error("static authenticator is always signed in")
	}
	if err := a.SignIn(context.Background()); err != nil {
		t.Errorf("SignIn: %v", err)
	}
}
