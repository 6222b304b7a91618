package web

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/calband/calchart/internal/actions"
	"github.com/calband/calchart/internal/membersonly"
	"github.com/calband/calchart/internal/shared"
)

// TabDescriptor names a tab available to the current user.
type TabDescriptor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PageHandler serves the single page application for all Calchart pages.
//
// Every page renders the same HTML shell; the client routes to the
// appropriate view. GET requests with a tab parameter return tab data as
// JSON, and POST requests carry actions dispatched through the registry.
type PageHandler struct {
	cfg        shared.ServerConfig
	service    *actions.Service
	registry   *actions.Registry
	committees membersonly.CommitteeChecker
	templates  *template.Template
	logger     *log.Logger
}

// NewPageHandler creates the page controller.
func NewPageHandler(
	cfg shared.ServerConfig,
	service *actions.Service,
	committees membersonly.CommitteeChecker,
	templates *template.Template,
	logger *log.Logger,
) *PageHandler {
	return &PageHandler{
		cfg:        cfg,
		service:    service,
		registry:   service.Registry(),
		committees: committees,
		templates:  templates,
		logger:     logger,
	}
}

// Routes implements [server.Handler].
func (h *PageHandler) Routes() []string {
	return []string{"/"}
}

func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	user := UserFrom(r.Context())
	if user == nil {
		RedirectToLogin(w, r)
		return
	}

	// A stale Members Only token means the identity can no longer answer
	// committee queries, so the user reauthenticates through the bridge.
	if !user.HasValidAPIToken() {
		http.Redirect(w, r, "/auth/members-only?next="+r.URL.RequestURI(), http.StatusFound)
		return
	}

	ident := actions.Identity{User: user, Committees: h.committees}

	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r, ident)
	case http.MethodPost:
		h.handlePost(w, r, ident)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleGet answers a tab data query or renders the page shell.
func (h *PageHandler) handleGet(w http.ResponseWriter, r *http.Request, ident actions.Identity) {
	if tab := r.URL.Query().Get("tab"); tab != "" {
		shows, err := h.service.TabShows(r.Context(), tab, ident)
		if err != nil {
			writeJSON(w, actions.StatusFor(err), map[string]any{"message": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"shows": shows})
		return
	}

	h.renderPage(w, r, ident)
}

// handlePost dispatches an action posted by the client.
func (h *PageHandler) handlePost(w http.ResponseWriter, r *http.Request, ident actions.Identity) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "malformed form data"})
		return
	}

	action := r.PostFormValue("action")
	if action == "" {
		// No default form handling exists on this route.
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	payload := json.RawMessage(r.PostFormValue("data"))

	result, err := h.registry.Dispatch(r.Context(), action, payload, ident)
	if err != nil {
		h.logger.Warn("action failed", "action", action, "user", ident.User.Username(), "error", err)
		writeJSON(w, actions.StatusFor(err), map[string]any{"message": err.Error()})
		return
	}

	if result == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// renderPage renders the application shell with the environment context the
// client needs to boot.
func (h *PageHandler) renderPage(w http.ResponseWriter, r *http.Request, ident actions.Identity) {
	stunt, err := ident.HasCommittee(r.Context(), actions.StuntCommittee)
	if err != nil {
		h.logger.Error("committee check failed", "user", ident.User.Username(), "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	csrfToken := ""
	if session := SessionFrom(r.Context()); session != nil {
		csrfToken = session.CSRFToken()
	}

	data := map[string]any{
		"Env": map[string]any{
			"csrf_token":  csrfToken,
			"static_path": h.cfg.StaticPath(),
			"is_stunt":    stunt,
			"is_local":    h.cfg.IsLocal,
		},
		"Tabs":     h.tabs(ident),
		"Messages": PopFlashes(w, r),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "calchart.html", data); err != nil {
		h.logger.Error("failed to render page", "error", err)
	}
}

// tabs returns the tabs available to the current user.
//
// Members Only users get the band tab for the current year alongside their
// own shows; local users only see their own shows.
func (h *PageHandler) tabs(ident actions.Identity) []TabDescriptor {
	owned := TabDescriptor{ID: "owned", Name: "My Shows"}

	if ident.User.IsMembersOnlyUser() {
		year := time.Now().Year()
		return []TabDescriptor{
			{ID: "band", Name: fmt.Sprintf("%d Shows", year)},
			owned,
		}
	}
	return []TabDescriptor{owned}
}

// writeJSON writes the value as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
