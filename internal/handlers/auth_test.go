package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSignupAndLogin(t *testing.T) {
	conn := setupTestDB(t)
	h := NewAuthHandler(conn)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"email": "Chef@Safalu.CI", "password": "secret123", "nom": "Koné"}`))
	h.signup(w, r)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", w.Code, w.Body.String())
	}
	if len(w.Result().Cookies()) == 0 {
		t.Fatal("signup did not set a session cookie")
	}

	// l'email est normalisé en minuscules
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email": "chef@safalu.ci", "password": "secret123"}`))
	h.login(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email": "chef@safalu.ci", "password": "wrong"}`))
	h.login(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d, expected 401", w.Code)
	}
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	conn := setupTestDB(t)
	h := NewAuthHandler(conn)

	body := `{"email": "chef@safalu.ci", "password": "secret123"}`
	w := httptest.NewRecorder()
	h.signup(w, httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(body)))
	if w.Code != http.StatusCreated {
		t.Fatalf("first signup status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.signup(w, httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(body)))
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate signup status = %d, expected 409", w.Code)
	}
}
