package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/calband/calchart/internal/repositories"
	"github.com/calband/calchart/internal/ui"
)

// showListing is the JSON shape of one show in `show list` output.
type showListing struct {
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	IsBand    bool   `json:"isBand"`
	Published bool   `json:"published"`
}

// ShowList lists every persisted show.
func (r *Runner) ShowList(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	db, owned, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	if owned {
		defer db.Close()
	}

	shows, err := repositories.NewShowRepository(db).List(nil)
	if err != nil {
		return fmt.Errorf("failed to list shows: %w", err)
	}

	if cmd.Bool("json") {
		listings := make([]showListing, 0, len(shows))
		for _, show := range shows {
			listings = append(listings, showListing{
				Slug:      show.Slug(),
				Name:      show.Name(),
				IsBand:    show.IsBand(),
				Published: show.Published(),
			})
		}
		return r.writeJSON(listings, cmd.Bool("pretty"))
	}

	for _, show := range shows {
		status := "draft"
		if show.Published() {
			status = "published"
		}
		kind := "personal"
		if show.IsBand() {
			kind = "band"
		}
		if err := r.writePlain("%-30s %-24s %-9s %s\n", show.Name(), show.Slug(), kind, status); err != nil {
			return err
		}
	}
	return nil
}

// ShowExport writes a show's stored document to a file.
func (r *Runner) ShowExport(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	db, owned, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	if owned {
		defer db.Close()
	}

	slug := cmd.String("slug")

	show, err := repositories.NewShowRepository(db).GetBySlug(slug)
	if err != nil {
		return fmt.Errorf("failed to find show: %w", err)
	}
	if !show.IsInitialized() {
		return fmt.Errorf("show %s has no data to export", slug)
	}

	outputPath := cmd.String("output")
	if outputPath == "" {
		outputPath = fmt.Sprintf("%s.json", slug)
	}

	if err := os.WriteFile(outputPath, show.Data(), 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	r.logger.Info("show exported", "slug", slug, "path", outputPath)
	return r.writePlain("Exported %s to %s\n", slug, outputPath)
}

// ShowTUI launches the interactive show browser.
func (r *Runner) ShowTUI(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	db, owned, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	if owned {
		defer db.Close()
	}

	return ui.Run(repositories.NewShowRepository(db))
}
