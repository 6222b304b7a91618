package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"golang.org/x/crypto/bcrypt"

	"github.com/calband/calchart/internal/models"
	"github.com/calband/calchart/internal/repositories"
)

// UserCreate creates a local Calchart account.
func (r *Runner) UserCreate(ctx context.Context, cmd *cli.Command) error {
	return r.createUser(cmd, false)
}

// UserCreateSuper creates a superuser account.
func (r *Runner) UserCreateSuper(ctx context.Context, cmd *cli.Command) error {
	return r.createUser(cmd, true)
}

func (r *Runner) createUser(cmd *cli.Command, superuser bool) error {
	config := r.loadConfig(cmd)

	db, owned, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	if owned {
		defer db.Close()
	}

	username := cmd.String("username")
	password := cmd.String("password")

	user := models.NewUser(0, username)
	user.SetSuperuser(superuser)

	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.SetPasswordHash(string(hash))
	} else if !superuser {
		return fmt.Errorf("a password is required for local users")
	}

	users := repositories.NewUserRepository(db)
	if err := users.Create(user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Info("user created", "username", username, "superuser", superuser)
	return r.writePlain("Created user %s\n", username)
}
