package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/calband/calchart/internal/models"
)

var _ list.Item = showItem{}

// showItem wraps [models.Show] to implement [list.Item].
type showItem struct {
	show *models.Show
}

func (i showItem) FilterValue() string { return i.show.Name() }
func (i showItem) Title() string       { return i.show.Name() }
func (i showItem) Description() string {
	badges := []string{i.show.Slug()}
	if i.show.IsBand() {
		badges = append(badges, "band")
	}
	if i.show.Published() {
		badges = append(badges, "published")
	}
	if !i.show.IsInitialized() {
		badges = append(badges, "not set up")
	}
	return strings.Join(badges, " • ")
}
