//go:build !integration

package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAuthMiddleware(t *testing.T) {
	// A handler the middleware should only reach with valid credentials.
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	logger := newTestLogger()
	auth := NewAuthManager("test-admin-jwt-secret-please-change", false, time.Minute)
	server := NewServer(&mockStatsUC{}, newMockCheckUC(), "test-admin-key", auth, nil, nil, logger)
	protected := server.authMiddleware(next)

	token, err := auth.Mint(httptest.NewRecorder())
	if err != nil || token == "" {
		t.Fatalf("failed to mint test token: %v", err)
	}

	cases := []struct {
		name string
		set  func(r *http.Request)
		want int
	}{
		{"no credentials -> 401", func(r *http.Request) {}, http.StatusUnauthorized},
		{"header without scheme -> 401", func(r *http.Request) {
			r.Header.Set("Authorization", "whatever-token")
		}, http.StatusUnauthorized},
		{"wrong scheme -> 401", func(r *http.Request) {
			r.Header.Set("Authorization", "Basic aaa.bbb.ccc")
		}, http.StatusUnauthorized},
		{"bearer but invalid jwt -> 401", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer invalid.jwt.token")
		}, http.StatusUnauthorized},
		{"valid bearer jwt -> 200", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		}, http.StatusOK},
		{"valid session cookie -> 200", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "admin_session", Value: token})
		}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
			tc.set(req)
			rr := httptest.NewRecorder()
			protected.ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rr.Code)
			}
		})
	}

	t.Run("no auth manager configured -> 401", func(t *testing.T) {
		bare := NewServer(&mockStatsUC{}, newMockCheckUC(), "test-admin-key", nil, nil, nil, logger)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		rr := httptest.NewRecorder()
		bare.authMiddleware(next).ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})
}

func TestAdminLoginLogoutFlow(t *testing.T) {
	logger := newTestLogger()
	auth := NewAuthManager("test-admin-jwt-secret-please-change", false, time.Minute)
	s := NewServer(&mockStatsUC{}, newMockCheckUC(), "test-admin-key", auth, nil, nil, logger)
	router := s.Routes()

	var sessionCookie *http.Cookie

	t.Run("login with wrong key -> 401", func(t *testing.T) {
		body := bytes.NewBufferString(`{"key":"wrong"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
		req.Header.Set("content-type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("login with correct key -> 200 + token + cookie", func(t *testing.T) {
		body := bytes.NewBufferString(`{"key":"test-admin-key"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
		req.Header.Set("content-type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		var resp loginResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode login response: %v", err)
		}
		if resp.Token == "" || resp.ExpiresIn != 60 {
			t.Fatalf("unexpected login response: %+v", resp)
		}
		for _, c := range rr.Result().Cookies() {
			if c.Name == "admin_session" {
				sessionCookie = c
				break
			}
		}
		if sessionCookie == nil || sessionCookie.Value == "" {
			t.Fatal("expected admin_session cookie")
		}
	})

	t.Run("protected route with cookie -> 200", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		req.AddCookie(sessionCookie)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})

	t.Run("logout -> 204", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		req.AddCookie(sessionCookie) // optional
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rr.Code)
		}
	})

	t.Run("after logout without cookie -> 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})
}

func TestHealthz(t *testing.T) {
	logger := newTestLogger()
	auth := NewAuthManager("secret", false, time.Minute)

	t.Run("all stores up -> 200", func(t *testing.T) {
		s := NewServer(&mockStatsUC{}, newMockCheckUC(), "key", auth, &fakePinger{}, &fakePinger{}, logger)
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()
		s.Routes().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		var body map[string]string
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["status"] != "ok" || body["postgres"] != "up" || body["redis"] != "up" {
			t.Fatalf("unexpected health body: %v", body)
		}
	})

	t.Run("redis down -> 503 degraded", func(t *testing.T) {
		s := NewServer(&mockStatsUC{}, newMockCheckUC(), "key", auth, &fakePinger{}, &fakePinger{err: errTest}, logger)
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()
		s.Routes().ServeHTTP(rr, req)

		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rr.Code)
		}
		var body map[string]string
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["status"] != "degraded" || body["redis"] != "down" || body["postgres"] != "up" {
			t.Fatalf("unexpected health body: %v", body)
		}
	})
}
