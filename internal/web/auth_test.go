package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/calband/calchart/internal/models"
	tu "github.com/calband/calchart/internal/testing"
)

func (h *harness) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func TestLogin(t *testing.T) {
	t.Run("RendersForm", func(t *testing.T) {
		h := newHarness(t, tu.NoCommitteeChecker())

		rec := h.get(nil, "/login")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		body := rec.Body.String()
		if !strings.Contains(body, `name="username"`) || !strings.Contains(body, `name="password"`) {
			t.Errorf("expected the credentials form: %s", body)
		}
		if !strings.Contains(body, "/auth/members-only") {
			t.Error("expected a Members Only login link")
		}
	})

	t.Run("ValidCredentials", func(t *testing.T) {
		h := newHarness(t, tu.NoCommitteeChecker())

		hash, err := bcrypt.GenerateFromPassword([]byte("gobears1895"), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("failed to hash password: %v", err)
		}
		user := models.NewUser(0, "townie")
		user.SetPasswordHash(string(hash))
		if err := h.users.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		rec := h.postForm("/login?next=/", url.Values{
			"username": {"townie"},
			"password": {"gobears1895"},
		})

		if rec.Code != http.StatusFound {
			t.Fatalf("expected redirect after login, got %d", rec.Code)
		}

		var sessionCookie *http.Cookie
		for _, cookie := range rec.Result().Cookies() {
			if cookie.Name == h.cfg.Server.CookieName {
				sessionCookie = cookie
			}
		}
		if sessionCookie == nil {
			t.Fatal("expected a session cookie")
		}

		if rec := h.get(sessionCookie, "/"); rec.Code != http.StatusOK {
			t.Errorf("the new session should reach the page, got %d", rec.Code)
		}
	})

	t.Run("InvalidCredentials", func(t *testing.T) {
		h := newHarness(t, tu.NoCommitteeChecker())

		rec := h.postForm("/login", url.Values{
			"username": {"nobody"},
			"password": {"wrong"},
		})

		if rec.Code != http.StatusOK {
			t.Fatalf("failed logins re-render the form, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Please enter a correct username and password.") {
			t.Error("expected the failure message in the form")
		}
	})
}

func TestMembersOnlyBridge(t *testing.T) {
	t.Run("CreatesUser", func(t *testing.T) {
		h := newHarness(t, tu.NoCommitteeChecker())

		rec := h.get(nil, "/auth/members-only?username=drum_major&api_token=tok1&ttl_days=5&next=/home")

		if rec.Code != http.StatusFound {
			t.Fatalf("expected redirect, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/home" {
			t.Errorf("expected redirect to next, got %s", loc)
		}

		user, err := h.users.GetByMembersOnlyUsername("drum_major")
		if err != nil {
			t.Fatalf("expected a new user: %v", err)
		}
		if user.APIToken() != "tok1" {
			t.Errorf("expected the passed token, got %q", user.APIToken())
		}
	})

	t.Run("RefreshesExistingUser", func(t *testing.T) {
		h := newHarness(t, tu.NoCommitteeChecker())
		h.createMembersOnlyUser(t, "drum_major")

		rec := h.get(nil, "/auth/members-only?username=drum_major&api_token=tok2&ttl_days=5&next=/")
		if rec.Code != http.StatusFound {
			t.Fatalf("expected redirect, got %d", rec.Code)
		}

		users, err := h.users.List(nil)
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(users) != 1 {
			t.Fatalf("refresh must not duplicate the identity, got %d users", len(users))
		}
		if users[0].APIToken() != "tok2" {
			t.Errorf("expected the refreshed token, got %q", users[0].APIToken())
		}
	})

	t.Run("RedirectsToMembersOnly", func(t *testing.T) {
		h := newHarness(t, tu.NoCommitteeChecker())

		rec := h.get(nil, "/auth/members-only?next=/home")

		if rec.Code != http.StatusFound {
			t.Fatalf("expected redirect, got %d", rec.Code)
		}

		loc := rec.Header().Get("Location")
		if !strings.Contains(loc, "/api/auth-login/") {
			t.Errorf("expected the external login URL, got %s", loc)
		}
		if !strings.Contains(loc, url.QueryEscape("next=/home")) {
			t.Errorf("expected next preserved through the round trip, got %s", loc)
		}
	})
}

func TestLogout(t *testing.T) {
	h := newHarness(t, tu.NoCommitteeChecker())
	user := h.createMembersOnlyUser(t, "bandie")
	cookie := h.login(t, user)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}

	// The old session token no longer works.
	if rec := h.get(cookie, "/"); rec.Code != http.StatusFound {
		t.Errorf("expected the session to be destroyed, got %d", rec.Code)
	}
}

func TestCreateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h := newHarness(t, tu.NoCommitteeChecker())

		rec := h.postForm("/create-user", url.Values{
			"username":  {"townie"},
			"password1": {"gobears1895"},
			"password2": {"gobears1895"},
		})

		if rec.Code != http.StatusFound {
			t.Fatalf("expected redirect to login, got %d: %s", rec.Code, rec.Body.String())
		}
		if loc := rec.Header().Get("Location"); loc != "/login" {
			t.Errorf("expected redirect to /login, got %s", loc)
		}

		user, err := h.users.GetByUsername("townie")
		if err != nil {
			t.Fatalf("expected the user to exist: %v", err)
		}
		if user.PasswordHash() == "" || user.PasswordHash() == "gobears1895" {
			t.Error("password should be stored hashed")
		}

		// The flash shows up on the next page render.
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		for _, cookie := range rec.Result().Cookies() {
			req.AddCookie(cookie)
		}
		loginRec := httptest.NewRecorder()
		h.router.ServeHTTP(loginRec, req)

		if !strings.Contains(loginRec.Body.String(), "User successfully created.") {
			t.Error("expected the success flash on the login page")
		}
	})

	t.Run("PasswordMismatch", func(t *testing.T) {
		h := newHarness(t, tu.NoCommitteeChecker())

		rec := h.postForm("/create-user", url.Values{
			"username":  {"townie"},
			"password1": {"gobears1895"},
			"password2": {"gobears1896"},
		})

		if rec.Code != http.StatusOK {
			t.Fatalf("invalid forms re-render, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "The two password fields didn") {
			t.Error("expected the mismatch error in the form")
		}
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		h := newHarness(t, tu.NoCommitteeChecker())
		h.createMembersOnlyUser(t, "townie")

		rec := h.postForm("/create-user", url.Values{
			"username":  {"townie"},
			"password1": {"gobears1895"},
			"password2": {"gobears1895"},
		})

		if rec.Code != http.StatusOK {
			t.Fatalf("invalid forms re-render, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "A user with that username already exists.") {
			t.Error("expected the duplicate username error")
		}
	})
}
