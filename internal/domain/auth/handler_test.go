package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"

	"vet-clinic-api/internal/ports/oauth"
)

func newTestRouter(svc *Service) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, svc)
	return r
}

// stateCookieFromLogin arranca el flujo y devuelve la cookie de state y
// el state que viajó al proveedor.
func stateCookieFromLogin(t *testing.T, h http.Handler) (*http.Cookie, string) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google/login", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("login redirect: status %d", rec.Code)
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == oauthStateCookie {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatalf("expected %s cookie on redirect", oauthStateCookie)
	}

	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse redirect location: %v", err)
	}
	return cookie, loc.Query().Get("state")
}

func TestGoogleCallbackStateRoundTrip(t *testing.T) {
	us := newFakeUsers()
	svc := newTestService(us, &fakeProvider{profile: oauth.Profile{
		Email:         "maria.lopez@example.com",
		VerifiedEmail: true,
	}})
	h := newTestRouter(svc)

	cookie, state := stateCookieFromLogin(t, h)
	if state == "" || cookie.Value != state {
		t.Fatalf("redirect state %q does not match cookie %q", state, cookie.Value)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc&state="+state, nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("callback with valid state: status %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestGoogleCallbackRejectsBadState(t *testing.T) {
	us := newFakeUsers()
	svc := newTestService(us, &fakeProvider{profile: oauth.Profile{
		Email:         "maria.lopez@example.com",
		VerifiedEmail: true,
	}})
	h := newTestRouter(svc)

	cookie, state := stateCookieFromLogin(t, h)

	// Sin cookie.
	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc&state="+state, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("callback without cookie: status %d", rec.Code)
	}

	// Cookie presente pero state distinto.
	req = httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc&state=forged", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("callback with forged state: status %d", rec.Code)
	}

	// Nada de eso debe haber creado una cuenta.
	if len(us.byEmail) != 0 {
		t.Fatalf("expected no accounts created, got %d", len(us.byEmail))
	}
}
