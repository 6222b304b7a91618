package web

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/calband/calchart/internal/membersonly"
	"github.com/calband/calchart/internal/models"
	"github.com/calband/calchart/internal/repositories"
	"github.com/calband/calchart/internal/shared"
)

// AuthHandler serves the login page, the Members Only bridge, logout, and
// account creation.
type AuthHandler struct {
	users     *repositories.UserRepository
	sessions  *Sessions
	client    *membersonly.Client
	templates *template.Template
	logger    *log.Logger
}

// NewAuthHandler creates the authentication endpoints.
func NewAuthHandler(
	users *repositories.UserRepository,
	sessions *Sessions,
	client *membersonly.Client,
	templates *template.Template,
	logger *log.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:     users,
		sessions:  sessions,
		client:    client,
		templates: templates,
		logger:    logger,
	}
}

// Routes implements [server.Handler].
func (h *AuthHandler) Routes() []string {
	return []string{"/login", "/logout", "/auth/members-only", "/create-user"}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/login":
		h.serveLogin(w, r)
	case "/logout":
		h.serveLogout(w, r)
	case "/auth/members-only":
		h.serveMembersOnly(w, r)
	case "/create-user":
		h.serveCreateUser(w, r)
	default:
		http.NotFound(w, r)
	}
}

// serveLogin renders the login form and verifies local credentials.
func (h *AuthHandler) serveLogin(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if next == "" {
		next = "/"
	}

	// Authenticated users have nothing to do here.
	if UserFrom(r.Context()) != nil {
		http.Redirect(w, r, next, http.StatusFound)
		return
	}

	form := loginForm()

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		user, err := h.authenticate(r.PostFormValue("username"), r.PostFormValue("password"))
		if err == nil {
			if _, err := h.sessions.Open(w, user); err != nil {
				h.logger.Error("failed to open session", "error", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			http.Redirect(w, r, next, http.StatusFound)
			return
		}

		form.Bind(r.PostForm)
		form.AddError("", "Please enter a correct username and password.")
	}

	h.render(w, r, "login.html", form, next)
}

// authenticate verifies a local username and password pair.
func (h *AuthHandler) authenticate(username, password string) (*models.User, error) {
	user, err := h.users.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if user.PasswordHash() == "" {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash()), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrInvalidCredentials, username)
	}
	return user, nil
}

// serveLogout destroys the current session.
func (h *AuthHandler) serveLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.sessions.Clear(w, r); err != nil {
		h.logger.Error("failed to clear session", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

// serveMembersOnly is the bridge endpoint for the Members Only flow.
//
// Members Only redirects here with identity parameters after the user logs
// in there; a request without them is the start of the flow and bounces the
// user out to Members Only.
func (h *AuthHandler) serveMembersOnly(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	next := query.Get("next")
	if next == "" {
		next = "/"
	}

	username := query.Get("username")
	if username == "" {
		bridgeURL := fmt.Sprintf("%s://%s/auth/members-only", requestScheme(r), r.Host)
		http.Redirect(w, r, h.client.LoginURL(bridgeURL, next), http.StatusFound)
		return
	}

	apiToken := query.Get("api_token")
	ttlDays, err := strconv.Atoi(query.Get("ttl_days"))
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetByMembersOnlyUsername(username)
	switch {
	case err == nil:
		// Existing identity: refresh the token in place, never duplicate.
		user.SetAPIToken(apiToken)
		user.SetExpiry(ttlDays)
		if err := h.users.Update(user); err != nil {
			h.logger.Error("failed to refresh members only user", "username", username, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	case errors.Is(err, shared.ErrUserNotFound):
		user, err = h.users.CreateMembersOnlyUser(username, apiToken, ttlDays)
		if err != nil {
			h.logger.Error("failed to create members only user", "username", username, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	default:
		h.logger.Error("members only lookup failed", "username", username, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if _, err := h.sessions.Open(w, user); err != nil {
		h.logger.Error("failed to open session", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, next, http.StatusFound)
}

// serveCreateUser renders and processes the account creation form.
func (h *AuthHandler) serveCreateUser(w http.ResponseWriter, r *http.Request) {
	form := createUserForm()

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		if validateCreateUser(form, r.PostForm) {
			if err := h.createUser(r.PostFormValue("username"), r.PostFormValue("password1")); err != nil {
				form.AddError("username", "A user with that username already exists.")
			} else {
				Flash(w, "success", "User successfully created.")
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
		}
	}

	h.render(w, r, "create_user.html", form, "/")
}

// createUser stores a local account with a hashed password.
func (h *AuthHandler) createUser(username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(0, username)
	user.SetPasswordHash(string(hash))
	return h.users.Create(user)
}

// render executes an auth page template with the form and flash messages.
func (h *AuthHandler) render(w http.ResponseWriter, r *http.Request, name string, form *Form, next string) {
	form.CSRFToken = shared.GenerateToken()

	data := map[string]any{
		"Form":     form,
		"Messages": PopFlashes(w, r),
		"Next":     next,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("failed to render page", "template", name, "error", err)
	}
}

// requestScheme infers the external scheme for building absolute URLs.
func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
