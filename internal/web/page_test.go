package web

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/calband/calchart/internal/actions"
	"github.com/calband/calchart/internal/membersonly"
	"github.com/calband/calchart/internal/models"
	"github.com/calband/calchart/internal/repositories"
	"github.com/calband/calchart/internal/server"
	"github.com/calband/calchart/internal/shared"
	tu "github.com/calband/calchart/internal/testing"
)

// harness bundles a fully wired router over an in-memory database.
type harness struct {
	db       *sql.DB
	users    *repositories.UserRepository
	shows    *repositories.ShowRepository
	sessions *Sessions
	router   *server.BasicRouter
	cfg      *shared.Config
}

func newHarness(t *testing.T, committees membersonly.CommitteeChecker) *harness {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	cfg := shared.DefaultConfig()
	logger := shared.NewLogger(nil)

	users := repositories.NewUserRepository(db)
	shows := repositories.NewShowRepository(db)
	sessions := NewSessions(repositories.NewSessionRepository(db), users, cfg.Server.CookieName)

	service := actions.NewService(shows, logger)
	templates, err := newTemplates(NewTags(cfg.Server.StaticPath()))
	if err != nil {
		t.Fatalf("failed to build templates: %v", err)
	}

	client := membersonly.NewClient(cfg.MembersOnly, nil)

	router := server.NewBasicRouter()
	router.Use(sessions.Middleware())
	router.Handler(NewPageHandler(cfg.Server, service, committees, templates, logger))
	router.Handler(NewExportHandler(shows))
	router.Handler(NewAuthHandler(users, sessions, client, templates, logger))

	return &harness{db: db, users: users, shows: shows, sessions: sessions, router: router, cfg: cfg}
}

// createMembersOnlyUser persists a Members Only user for the harness.
func (h *harness) createMembersOnlyUser(t *testing.T, username string) *models.User {
	t.Helper()

	user := models.NewMembersOnlyUser(0, username, username, "token123", 5)
	if err := h.users.Create(user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// login opens a session for the user and returns its cookie.
func (h *harness) login(t *testing.T, user *models.User) *http.Cookie {
	t.Helper()

	rec := httptest.NewRecorder()
	if _, err := h.sessions.Open(rec, user); err != nil {
		t.Fatalf("failed to open session: %v", err)
	}

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == h.cfg.Server.CookieName {
			return cookie
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

// postAction submits an action form post as the given session.
func (h *harness) postAction(cookie *http.Cookie, action, data string) *httptest.ResponseRecorder {
	form := url.Values{}
	if action != "" {
		form.Set("action", action)
	}
	form.Set("data", data)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) get(cookie *http.Cookie, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func TestPageRequiresLogin(t *testing.T) {
	h := newHarness(t, tu.NoCommitteeChecker())

	rec := h.get(nil, "/")

	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login?next=") {
		t.Errorf("expected redirect to login with next, got %s", loc)
	}
}

func TestPageTabQuery(t *testing.T) {
	h := newHarness(t, tu.NoCommitteeChecker())
	user := h.createMembersOnlyUser(t, "bandie")
	cookie := h.login(t, user)

	show := models.NewShow(0, "My Show", user.ID(), false)
	if err := h.shows.Create(show); err != nil {
		t.Fatalf("failed to create show: %v", err)
	}

	rec := h.get(cookie, "/?tab=owned")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Shows []struct {
			Slug      string `json:"slug"`
			Name      string `json:"name"`
			Published bool   `json:"published"`
		} `json:"shows"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Shows) != 1 || resp.Shows[0].Slug != "my-show" {
		t.Errorf("expected the owned show, got %+v", resp.Shows)
	}
}

func TestPageShell(t *testing.T) {
	t.Run("MembersOnlyUser", func(t *testing.T) {
		h := newHarness(t, tu.NoCommitteeChecker())
		user := h.createMembersOnlyUser(t, "bandie")
		cookie := h.login(t, user)

		rec := h.get(cookie, "/")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		body := rec.Body.String()
		for _, key := range []string{"csrf_token", "static_path", "is_stunt", "is_local"} {
			if !strings.Contains(body, key) {
				t.Errorf("expected env key %s in the page shell", key)
			}
		}
		if !strings.Contains(body, `"band"`) {
			t.Error("members only users should get the band tab")
		}
	})

	t.Run("LocalUser", func(t *testing.T) {
		h := newHarness(t, tu.NoCommitteeChecker())

		user := models.NewUser(0, "townie")
		if err := h.users.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
		cookie := h.login(t, user)

		rec := h.get(cookie, "/")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), `"band"`) {
			t.Error("local users should not get the band tab")
		}
	})
}

func TestPagePostActions(t *testing.T) {
	t.Run("UnknownAction", func(t *testing.T) {
		h := newHarness(t, tu.NoCommitteeChecker())
		cookie := h.login(t, h.createMembersOnlyUser(t, "bandie"))

		rec := h.postAction(cookie, "does_a_flip", "{}")

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}

		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["message"] != "Action does not exist: does_a_flip" {
			t.Errorf("unexpected message: %q", resp["message"])
		}
	})

	t.Run("MissingAction", func(t *testing.T) {
		h := newHarness(t, tu.NoCommitteeChecker())
		cookie := h.login(t, h.createMembersOnlyUser(t, "bandie"))

		rec := h.postAction(cookie, "", "{}")

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST without an action should not dispatch, got %d", rec.Code)
		}
	})

	t.Run("CreateShow", func(t *testing.T) {
		h := newHarness(t, tu.NoCommitteeChecker())
		cookie := h.login(t, h.createMembersOnlyUser(t, "bandie"))

		rec := h.postAction(cookie, "create_show", `{"name": "Fall Show"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["slug"] != "fall-show" {
			t.Errorf("expected the new show's slug, got %v", resp)
		}
	})

	t.Run("NilResultIsEmptyObject", func(t *testing.T) {
		h := newHarness(t, tu.NoCommitteeChecker())
		cookie := h.login(t, h.createMembersOnlyUser(t, "bandie"))

		if rec := h.postAction(cookie, "create_show", `{"name": "Fall Show"}`); rec.Code != http.StatusOK {
			t.Fatalf("create failed: %s", rec.Body.String())
		}

		rec := h.postAction(cookie, "save_show", `{"slug": "fall-show", "name": "Fall Show", "isBand": false, "published": false}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if strings.TrimSpace(rec.Body.String()) != "{}" {
			t.Errorf("nil results should render as an empty object, got %s", rec.Body.String())
		}
	})

	t.Run("NotFoundStatus", func(t *testing.T) {
		h := newHarness(t, tu.NoCommitteeChecker())
		cookie := h.login(t, h.createMembersOnlyUser(t, "bandie"))

		rec := h.postAction(cookie, "get_show", `{"slug": "ghost"}`)

		if rec.Code != http.StatusNotFound {
			t.Errorf("missing shows should map to 404, got %d", rec.Code)
		}
	})
}
