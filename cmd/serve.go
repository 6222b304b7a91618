package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/urfave/cli/v3"

	"github.com/calband/calchart/internal/membersonly"
	"github.com/calband/calchart/internal/shared"
	"github.com/calband/calchart/internal/web"
)

// Serve runs the Calchart web server from configuration.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	db, owned, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	if owned {
		defer db.Close()
	}

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	client := membersonly.NewClient(config.MembersOnly, nil)

	app, err := web.NewApp(config, db, client, r.logger)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	addr := config.Server.Addr()
	r.logger.Info("starting server", "addr", addr, "local", config.Server.IsLocal)

	server := &http.Server{Addr: addr, Handler: app.Handler()}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
