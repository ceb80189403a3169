package handler

import (
	"net/http"
	"testing"
)

func signupAndLogin(t *testing.T, ts *testServer, email, password, role string) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/auth/signup", `{"email":"`+email+`","password":"`+password+`","role":"`+role+`"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	w = ts.do(t, http.MethodPost, "/auth/login", `{"email":"`+email+`","password":"`+password+`"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	token, _ := decodeBody(t, w)["accessToken"].(string)
	if token == "" {
		t.Fatalf("empty access token")
	}
	return token
}

func TestAuthenticateRejectsBadHeaders(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer not-a-jwt"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			header := http.Header{}
			if tc.header != "" {
				header.Set("Authorization", tc.header)
			}
			w := ts.do(t, http.MethodGet, "/auth/me", "", header)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
		})
	}
}

func TestAuthenticateAttachesIdentity(t *testing.T) {
	ts := newTestServer(t)
	token := signupAndLogin(t, ts, "a@x.com", "secret1", "user")

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	w := ts.do(t, http.MethodGet, "/auth/me", "", header)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["email"] != "a@x.com" || body["role"] != "user" {
		t.Fatalf("unexpected identity: %v", body)
	}
}

func TestAuthenticateRejectsDeletedUser(t *testing.T) {
	ts := newTestServer(t)
	token := signupAndLogin(t, ts, "a@x.com", "secret1", "user")

	for id := range ts.users.users {
		delete(ts.users.users, id)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	w := ts.do(t, http.MethodGet, "/auth/me", "", header)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("deleted user: expected 401, got %d", w.Code)
	}
}

func TestRequireRoleGatesAdminRoute(t *testing.T) {
	ts := newTestServer(t)

	userToken := signupAndLogin(t, ts, "u@x.com", "secret1", "user")
	adminToken := signupAndLogin(t, ts, "root@x.com", "secret1", "admin")

	header := http.Header{}
	header.Set("Authorization", "Bearer "+userToken)
	w := ts.do(t, http.MethodGet, "/auth/admin", "", header)
	if w.Code != http.StatusForbidden {
		t.Fatalf("user on admin route: expected 403, got %d", w.Code)
	}

	header.Set("Authorization", "Bearer "+adminToken)
	w = ts.do(t, http.MethodGet, "/auth/admin", "", header)
	if w.Code != http.StatusOK {
		t.Fatalf("admin on admin route: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
}
