package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/calband/calchart/internal/models"
	"github.com/calband/calchart/internal/repositories"
	"github.com/calband/calchart/internal/shared"
)

// StuntCommittee gates access to band shows: STUNT members create and edit
// the shows performed by the full band.
const StuntCommittee = "STUNT"

// Service holds the dependencies shared by all action handlers.
type Service struct {
	shows  *repositories.ShowRepository
	logger *log.Logger
}

// NewService creates the action service backed by the given show repository.
func NewService(shows *repositories.ShowRepository, logger *log.Logger) *Service {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Service{shows: shows, logger: logger}
}

// Registry builds the action registry served by the Calchart page.
func (s *Service) Registry() *Registry {
	registry := NewRegistry()

	registry.Register("get_tab", s.GetTab)
	registry.Register("get_show", s.GetShow)
	registry.Register("create_show", s.CreateShow)
	registry.Register("save_show", s.SaveShow)
	registry.Register("publish_show", s.PublishShow)

	return registry
}

// ShowInfo is the listing entry returned for tab queries.
type ShowInfo struct {
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	Published bool   `json:"published"`
}

// TabShows returns the shows visible in the given tab for the caller.
//
// The band tab holds this year's band shows; members outside STUNT only see
// the published ones. The owned tab holds the caller's personal shows.
func (s *Service) TabShows(ctx context.Context, tab string, ident Identity) ([]ShowInfo, error) {
	var shows []*models.Show
	var err error

	switch tab {
	case "band":
		stunt, cerr := ident.HasCommittee(ctx, StuntCommittee)
		if cerr != nil {
			return nil, cerr
		}
		shows, err = s.shows.ListBand(time.Now().Year(), !stunt)
	case "owned":
		shows, err = s.shows.ListOwned(ident.User.ID())
	default:
		return nil, fmt.Errorf("Invalid tab: %s", tab)
	}

	if err != nil {
		return nil, err
	}

	infos := make([]ShowInfo, 0, len(shows))
	for _, show := range shows {
		infos = append(infos, ShowInfo{
			Slug:      show.Slug(),
			Name:      show.Name(),
			Published: show.Published(),
		})
	}
	return infos, nil
}

// GetTab is the POST action mirror of the tab listing query.
func (s *Service) GetTab(ctx context.Context, payload json.RawMessage, ident Identity) (any, error) {
	var p struct {
		Tab string `json:"tab"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}

	shows, err := s.TabShows(ctx, p.Tab, ident)
	if err != nil {
		return nil, err
	}

	return map[string]any{"shows": shows}, nil
}

// GetShow returns the show with the given slug.
//
// An initialized show returns its stored document; a show that has not been
// set up yet returns its metadata so the client can start setup.
func (s *Service) GetShow(ctx context.Context, payload json.RawMessage, ident Identity) (any, error) {
	var p struct {
		Slug string `json:"slug"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}

	show, err := s.retrieveShow(ctx, p.Slug, ident)
	if err != nil {
		return nil, err
	}

	if show.IsInitialized() {
		return map[string]any{
			"isInitialized": true,
			"show":          json.RawMessage(show.Data()),
		}, nil
	}

	return map[string]any{
		"isInitialized": false,
		"name":          show.Name(),
		"slug":          show.Slug(),
		"isBand":        show.IsBand(),
	}, nil
}

// CreateShow creates a show owned by the caller and stores the posted
// document as its data.
//
// The band flag is honored only for STUNT members; everyone else gets a
// personal show regardless of what the client sent.
func (s *Service) CreateShow(ctx context.Context, payload json.RawMessage, ident Identity) (any, error) {
	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}

	name, _ := doc["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("show name is required")
	}

	isBand := false
	if requested, _ := doc["isBand"].(bool); requested {
		stunt, err := ident.HasCommittee(ctx, StuntCommittee)
		if err != nil {
			return nil, err
		}
		isBand = stunt
	}

	exists, err := s.shows.NameExists(name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("Show with the name `%s` already exists.", name)
	}

	show := models.NewShow(0, name, ident.User.ID(), isBand)
	if err := s.shows.Create(show); err != nil {
		return nil, err
	}

	doc["slug"] = show.Slug()
	doc["isBand"] = isBand
	doc["published"] = false

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode show data: %w", err)
	}
	if err := s.shows.SaveData(show, data); err != nil {
		return nil, err
	}

	s.logger.Info("created show", "slug", show.Slug(), "owner", ident.User.Username())

	return map[string]any{"slug": show.Slug()}, nil
}

// SaveShow overwrites the document of the show named in the payload.
func (s *Service) SaveShow(ctx context.Context, payload json.RawMessage, ident Identity) (any, error) {
	var p struct {
		Slug string `json:"slug"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}

	show, err := s.retrieveShow(ctx, p.Slug, ident)
	if err != nil {
		return nil, err
	}

	if err := s.shows.SaveData(show, payload); err != nil {
		return nil, err
	}

	return nil, nil
}

// PublishShow publishes or unpublishes a show by rewriting the published
// flag inside its stored document.
func (s *Service) PublishShow(ctx context.Context, payload json.RawMessage, ident Identity) (any, error) {
	var p struct {
		Slug    string `json:"slug"`
		Publish bool   `json:"publish"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}

	show, err := s.retrieveShow(ctx, p.Slug, ident)
	if err != nil {
		return nil, err
	}

	if !show.IsInitialized() {
		// Only applies to publishing: a show without data cannot have
		// been published in the first place to be unpublished.
		return nil, fmt.Errorf("Cannot publish show before setting it up")
	}

	doc, err := show.Document()
	if err != nil {
		return nil, err
	}
	doc["published"] = p.Publish

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode show data: %w", err)
	}
	if err := s.shows.SaveData(show, data); err != nil {
		return nil, err
	}

	return nil, nil
}

// retrieveShow fetches the show with the given slug and checks that the
// caller may view it: band shows are restricted to STUNT members.
func (s *Service) retrieveShow(ctx context.Context, slug string, ident Identity) (*models.Show, error) {
	show, err := s.shows.GetBySlug(slug)
	if err != nil {
		return nil, err
	}

	if show.IsBand() {
		stunt, err := ident.HasCommittee(ctx, StuntCommittee)
		if err != nil {
			return nil, err
		}
		if !stunt {
			return nil, fmt.Errorf("%w: band shows require %s", shared.ErrPermissionDenied, StuntCommittee)
		}
	}

	return show, nil
}
