package web

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/calband/calchart/internal/models"
	"github.com/calband/calchart/internal/repositories"
	"github.com/calband/calchart/internal/server"
	"github.com/calband/calchart/internal/shared"
)

// sessionTTL is how long a login lasts before the user has to authenticate
// again.
const sessionTTL = 14 * 24 * time.Hour

// flashCookie carries read-once flash messages between a redirect and the
// next page render.
const flashCookie = "calchart_flash"

type contextKey string

const (
	userKey    contextKey = "user"
	sessionKey contextKey = "session"
)

// UserFrom returns the authenticated user attached to the request context,
// or nil for anonymous requests.
func UserFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// SessionFrom returns the session attached to the request context.
func SessionFrom(ctx context.Context) *models.Session {
	session, _ := ctx.Value(sessionKey).(*models.Session)
	return session
}

// Sessions resolves session cookies to users and manages login state.
type Sessions struct {
	sessions   *repositories.SessionRepository
	users      *repositories.UserRepository
	cookieName string
}

// NewSessions creates the session layer over the given repositories.
func NewSessions(sessions *repositories.SessionRepository, users *repositories.UserRepository, cookieName string) *Sessions {
	return &Sessions{sessions: sessions, users: users, cookieName: cookieName}
}

// Middleware attaches the authenticated user and session to the request
// context when a valid session cookie is present. Requests without one pass
// through anonymous; handlers decide whether authentication is required.
func (s *Sessions) Middleware() server.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(s.cookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			session, err := s.sessions.GetByToken(cookie.Value)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := s.users.Get(session.UserID())
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Open creates a session for the user and sets the session cookie.
func (s *Sessions) Open(w http.ResponseWriter, user *models.User) (*models.Session, error) {
	session := models.NewSession(0, shared.GenerateToken(), shared.GenerateToken(), user.ID(), sessionTTL)
	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    session.Token(),
		Path:     "/",
		Expires:  session.ExpiresAt(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return session, nil
}

// Clear destroys the request's session and expires the cookie.
func (s *Sessions) Clear(w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return nil
	}

	if err := s.sessions.DeleteByToken(cookie.Value); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return nil
}

// RedirectToLogin sends an unauthenticated request to the login page,
// preserving the requested path in the next parameter.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	next := url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, "/login?next="+next, http.StatusFound)
}

// Flash queues a message to be shown on the next page render.
func Flash(w http.ResponseWriter, level, text string) {
	messages := []Message{{Level: level, Text: text}}
	data, err := json.Marshal(messages)
	if err != nil {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.URLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
	})
}

// PopFlashes returns the queued flash messages and clears them.
func PopFlashes(w http.ResponseWriter, r *http.Request) []Message {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	data, err := base64.URLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}

	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil
	}
	return messages
}
