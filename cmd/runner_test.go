package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/calband/calchart/internal/models"
	"github.com/calband/calchart/internal/repositories"
	"github.com/calband/calchart/internal/shared"
	tu "github.com/calband/calchart/internal/testing"
)

func newTestRunner(t *testing.T) (*Runner, *sql.DB, *bytes.Buffer) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: shared.DefaultConfig(),
		DB:     db,
		Logger: shared.NewLogger(nil),
		Output: output,
	})

	return runner, db, output
}

// run executes a CLI invocation against the runner's command tree.
func run(t *testing.T, runner *Runner, args ...string) error {
	t.Helper()

	app := &cli.Command{Name: "calchart", Commands: runner.register()}
	return app.Run(context.Background(), append([]string{"calchart"}, args...))
}

func TestNewRunner(t *testing.T) {
	t.Run("WithDependencies", func(t *testing.T) {
		config := shared.DefaultConfig()
		logger := shared.NewLogger(nil)
		output := &bytes.Buffer{}

		runner := NewRunner(RunnerOpts{Config: config, Logger: logger, Output: output})

		if runner.config != config {
			t.Error("expected config to be set")
		}
		if runner.logger != logger {
			t.Error("expected logger to be set")
		}
		if runner.output != output {
			t.Error("expected output to be set")
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})

		if runner.logger == nil {
			t.Error("expected a default logger")
		}
		if runner.output == nil {
			t.Error("expected a default output writer")
		}
	})
}

func TestUserCreate(t *testing.T) {
	t.Run("LocalUser", func(t *testing.T) {
		runner, db, output := newTestRunner(t)

		if err := run(t, runner, "user", "create", "--username", "member", "--password", "calbandgreat"); err != nil {
			t.Fatalf("command failed: %v", err)
		}

		user, err := repositories.NewUserRepository(db).GetByUsername("member")
		if err != nil {
			t.Fatalf("expected the user to exist: %v", err)
		}
		if user.IsSuperuser() {
			t.Error("plain users should not be superusers")
		}
		if user.PasswordHash() == "" || user.PasswordHash() == "calbandgreat" {
			t.Error("password should be stored hashed")
		}
		if !strings.Contains(output.String(), "Created user member") {
			t.Errorf("unexpected output: %s", output.String())
		}
	})

	t.Run("RequiresPassword", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)

		if err := run(t, runner, "user", "create", "--username", "member"); err == nil {
			t.Error("local users need a password")
		}
	})

	t.Run("Superuser", func(t *testing.T) {
		runner, db, _ := newTestRunner(t)

		if err := run(t, runner, "user", "create-super", "--username", "admin"); err != nil {
			t.Fatalf("command failed: %v", err)
		}

		user, err := repositories.NewUserRepository(db).GetByUsername("admin")
		if err != nil {
			t.Fatalf("expected the user to exist: %v", err)
		}
		if !user.IsSuperuser() {
			t.Error("expected a superuser")
		}
	})
}

func TestShowList(t *testing.T) {
	runner, db, output := newTestRunner(t)

	users := repositories.NewUserRepository(db)
	owner := models.NewUser(0, "member")
	if err := users.Create(owner); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	shows := repositories.NewShowRepository(db)
	show := models.NewShow(0, "Fall Show", owner.ID(), true)
	if err := shows.Create(show); err != nil {
		t.Fatalf("failed to create show: %v", err)
	}

	t.Run("Plain", func(t *testing.T) {
		output.Reset()

		if err := run(t, runner, "show", "list"); err != nil {
			t.Fatalf("command failed: %v", err)
		}

		got := output.String()
		if !strings.Contains(got, "Fall Show") || !strings.Contains(got, "band") {
			t.Errorf("unexpected listing: %s", got)
		}
	})

	t.Run("JSON", func(t *testing.T) {
		output.Reset()

		if err := run(t, runner, "show", "list", "--json"); err != nil {
			t.Fatalf("command failed: %v", err)
		}

		var listings []showListing
		if err := json.Unmarshal(output.Bytes(), &listings); err != nil {
			t.Fatalf("failed to decode output: %v", err)
		}
		if len(listings) != 1 || listings[0].Slug != "fall-show" || !listings[0].IsBand {
			t.Errorf("unexpected listings: %+v", listings)
		}
	})
}

func TestShowExport(t *testing.T) {
	runner, db, _ := newTestRunner(t)

	users := repositories.NewUserRepository(db)
	owner := models.NewUser(0, "member")
	if err := users.Create(owner); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	shows := repositories.NewShowRepository(db)
	show := models.NewShow(0, "Demo", owner.ID(), false)
	if err := shows.Create(show); err != nil {
		t.Fatalf("failed to create show: %v", err)
	}

	stored := []byte(`{"slug": "demo", "name": "Demo", "a": 1}`)
	if err := shows.SaveData(show, stored); err != nil {
		t.Fatalf("failed to save data: %v", err)
	}

	t.Run("WritesDocument", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "demo.json")

		if err := run(t, runner, "show", "export", "--slug", "demo", "--output", path); err != nil {
			t.Fatalf("command failed: %v", err)
		}

		if got := tu.MustReadFile(t, path); got != string(stored) {
			t.Errorf("exported document should match the stored bytes:\n got %s\nwant %s", got, stored)
		}
	})

	t.Run("MissingShow", func(t *testing.T) {
		if err := run(t, runner, "show", "export", "--slug", "ghost"); err == nil {
			t.Error("exporting a missing show should fail")
		}
	})

	t.Run("UninitializedShow", func(t *testing.T) {
		empty := models.NewShow(0, "Empty", owner.ID(), false)
		if err := shows.Create(empty); err != nil {
			t.Fatalf("failed to create show: %v", err)
		}

		if err := run(t, runner, "show", "export", "--slug", "empty"); err == nil {
			t.Error("exporting a show without data should fail")
		}
	})
}

func TestSetupDatabase(t *testing.T) {
	runner, db, _ := newTestRunner(t)

	// Migrations already ran in the harness; running the command again must
	// be a no-op rather than a failure.
	if err := run(t, runner, "setup", "database"); err != nil {
		t.Fatalf("command failed: %v", err)
	}

	var version int
	if err := db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		t.Fatalf("expected the migrations table: %v", err)
	}
}
