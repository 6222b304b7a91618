package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/calband/calchart/internal/models"
	"github.com/calband/calchart/internal/shared"
)

// UserRepository implements [models.Repository] for [models.User] persistence.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	id, sequence, username, password_hash, members_only_username,
	api_token, api_token_expiry, is_superuser, viewpsheet_settings,
	created_at, updated_at, deleted_at
`

// Create inserts a new user into the database with generated ID and sequence
func (r *UserRepository) Create(user *models.User) error {
	sequence, err := NextSequence(r.db, "users")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	user.SetSequence(sequence)

	id := shared.GenerateID()
	user.SetID(id)

	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`

	var membersOnlyUsername any
	if user.MembersOnlyUsername() != "" {
		membersOnlyUsername = user.MembersOnlyUsername()
	}

	var expiry any
	if user.APITokenExpiry() != nil {
		expiry = *user.APITokenExpiry()
	}

	_, err = r.db.Exec(query,
		id, sequence, user.Username(), user.PasswordHash(), membersOnlyUsername,
		user.APIToken(), expiry, user.IsSuperuser(), user.ViewpsheetSettings(),
		user.CreatedAt(), user.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// CreateMembersOnlyUser creates a user imported from Members Only.
//
// Since the user keeps the same username as on Members Only, the local
// username is uniquified against existing Calchart usernames by appending
// underscores.
func (r *UserRepository) CreateMembersOnlyUser(username, apiToken string, ttlDays int) (*models.User, error) {
	localUsername := username
	for {
		taken, err := r.usernameExists(localUsername)
		if err != nil {
			return nil, err
		}
		if !taken {
			break
		}
		localUsername += "_"
	}

	user := models.NewMembersOnlyUser(0, localUsername, username, apiToken, ttlDays)
	if err := r.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Get retrieves a user by ID, excluding soft-deleted users
func (r *UserRepository) Get(id string) (*models.User, error) {
	return r.getWhere("id = ?", id)
}

// GetByUsername retrieves a user by local username.
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	return r.getWhere("username = ?", username)
}

// GetByMembersOnlyUsername retrieves a user by Members Only username.
func (r *UserRepository) GetByMembersOnlyUsername(username string) (*models.User, error) {
	return r.getWhere("members_only_username = ?", username)
}

func (r *UserRepository) getWhere(clause string, args ...any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + clause + ` AND deleted_at IS NULL`

	user, err := scanUser(r.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %v", shared.ErrUserNotFound, args[0])
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return user, nil
}

// Update modifies an existing user in the database
func (r *UserRepository) Update(user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	user.SetUpdatedAt(now)

	query := `
		UPDATE users
		SET username = ?, password_hash = ?, members_only_username = ?,
			api_token = ?, api_token_expiry = ?, is_superuser = ?,
			viewpsheet_settings = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	var membersOnlyUsername any
	if user.MembersOnlyUsername() != "" {
		membersOnlyUsername = user.MembersOnlyUsername()
	}

	var expiry any
	if user.APITokenExpiry() != nil {
		expiry = *user.APITokenExpiry()
	}

	result, err := r.db.Exec(query,
		user.Username(), user.PasswordHash(), membersOnlyUsername,
		user.APIToken(), expiry, user.IsSuperuser(),
		user.ViewpsheetSettings(), now, user.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found or already deleted: %s", user.ID())
	}

	return nil
}

// Delete soft-deletes a user by ID
func (r *UserRepository) Delete(id string) error {
	query := `
		UPDATE users
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all users matching the given criteria, excluding soft-deleted users
func (r *UserRepository) List(criteria map[string]any) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL`

	args := []any{}

	if username, ok := criteria["username"].(string); ok && username != "" {
		query += " AND username = ?"
		args = append(args, username)
	}
	if superuser, ok := criteria["superuser"].(bool); ok {
		query += " AND is_superuser = ?"
		args = append(args, superuser)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return users, nil
}

func (r *UserRepository) usernameExists(username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE username = ? AND deleted_at IS NULL)", username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	var (
		id                  string
		sequence            int
		username            string
		passwordHash        string
		membersOnlyUsername sql.NullString
		apiToken            string
		apiTokenExpiry      sql.NullTime
		superuser           bool
		viewpsheetSettings  string
		createdAt           time.Time
		updatedAt           time.Time
		deletedAt           sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &username, &passwordHash, &membersOnlyUsername,
		&apiToken, &apiTokenExpiry, &superuser, &viewpsheetSettings,
		&createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	user := models.NewUser(sequence, username)
	user.SetID(id)
	user.SetPasswordHash(passwordHash)
	user.SetAPIToken(apiToken)
	user.SetSuperuser(superuser)
	user.SetViewpsheetSettings(viewpsheetSettings)
	user.SetCreatedAt(createdAt)
	user.SetUpdatedAt(updatedAt)

	if membersOnlyUsername.Valid {
		user.SetMembersOnlyUsername(membersOnlyUsername.String)
	}
	if apiTokenExpiry.Valid {
		user.SetAPITokenExpiry(&apiTokenExpiry.Time)
	}
	if deletedAt.Valid {
		user.SetDeletedAt(&deletedAt.Time)
	}

	return user, nil
}
