// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// configFlag is shared by every command that reads configuration.
func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// serveCommand runs the HTTP server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the Calchart web server",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Serve,
	}
}

// setupCommand handles first-run initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "First-run initialization",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// userCommand handles account management.
func userCommand(r *Runner) *cli.Command {
	userFlags := []cli.Flag{
		configFlag(),
		&cli.StringFlag{
			Name:     "username",
			Aliases:  []string{"u"},
			Usage:    "Username for the new account",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "Password for the new account",
		},
	}

	return &cli.Command{
		Name:  "user",
		Usage: "Manage Calchart accounts",
		Commands: []*cli.Command{
			{
				Name:   "create",
				Usage:  "Create a local Calchart user",
				Flags:  userFlags,
				Action: r.UserCreate,
			},
			{
				Name:   "create-super",
				Usage:  "Create a superuser",
				Flags:  userFlags,
				Action: r.UserCreateSuper,
			},
		},
	}
}

// showCommand handles show inspection and export.
func showCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Inspect persisted shows",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all shows",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.ShowList,
			},
			{
				Name:  "export",
				Usage: "Write a show's document to a file",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "slug",
						Aliases:  []string{"s"},
						Usage:    "Slug of the show to export",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (defaults to {slug}.json)",
					},
				},
				Action: r.ShowExport,
			},
			{
				Name:   "tui",
				Usage:  "Browse shows in an interactive terminal UI",
				Flags:  []cli.Flag{configFlag()},
				Action: r.ShowTUI,
			},
		},
	}
}
