// Package web is the HTTP boundary of the Calchart application.
//
// It assembles the page controller, the show export endpoint, and the
// authentication endpoints (local login plus the Members Only bridge) into a
// single router with session and logging middleware. The page controller is
// the only place internal failures convert to HTTP responses; everything
// below it returns errors.
package web

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/calband/calchart/internal/actions"
	"github.com/calband/calchart/internal/membersonly"
	"github.com/calband/calchart/internal/repositories"
	"github.com/calband/calchart/internal/server"
	"github.com/calband/calchart/internal/shared"
)

// App wires the web application's handlers, repositories, and middleware.
type App struct {
	router *server.BasicRouter
}

// NewApp builds the web application over an open database connection.
func NewApp(cfg *shared.Config, db *sql.DB, client *membersonly.Client, logger *log.Logger) (*App, error) {
	users := repositories.NewUserRepository(db)
	shows := repositories.NewShowRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)

	sessions := NewSessions(sessionRepo, users, cfg.Server.CookieName)
	service := actions.NewService(shows, logger)

	tags := NewTags(cfg.Server.StaticPath())
	templates, err := newTemplates(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to build templates: %w", err)
	}

	router := server.NewBasicRouter()
	router.Use(server.Recover(logger), server.Logging(logger), sessions.Middleware())

	router.Handler(NewPageHandler(cfg.Server, service, client, templates, logger))
	router.Handler(NewExportHandler(shows))
	router.Handler(NewAuthHandler(users, sessions, client, templates, logger))

	return &App{router: router}, nil
}

// Handler returns the root HTTP handler for the application.
func (a *App) Handler() http.Handler {
	return a.router
}
