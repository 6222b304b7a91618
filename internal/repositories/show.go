package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/calband/calchart/internal/models"
	"github.com/calband/calchart/internal/shared"
)

// ShowRepository implements [models.Repository] for [models.Show] persistence.
type ShowRepository struct {
	db *sql.DB
}

// NewShowRepository creates a new [ShowRepository] with the given database connection
func NewShowRepository(db *sql.DB) *ShowRepository {
	return &ShowRepository{db: db}
}

const showColumns = `
	id, sequence, name, slug, owner_id, published, is_band, data,
	date_added, created_at, updated_at, deleted_at
`

// Create inserts a new show into the database with generated ID and sequence.
//
// If the show has no slug yet, a unique slug is derived from its name by
// appending -1, -2, ... while the slug is taken.
func (r *ShowRepository) Create(show *models.Show) error {
	sequence, err := NextSequence(r.db, "shows")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	show.SetSequence(sequence)

	id := shared.GenerateID()
	show.SetID(id)

	if err := show.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if show.Slug() == "" {
		slug, err := r.uniqueSlug(shared.Slugify(show.Name()))
		if err != nil {
			return err
		}
		show.SetSlug(slug)
	}

	query := `
		INSERT INTO shows (` + showColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`

	_, err = r.db.Exec(query,
		id, sequence, show.Name(), show.Slug(), show.OwnerID(),
		show.Published(), show.IsBand(), nullableBytes(show.Data()),
		show.DateAdded(), show.CreatedAt(), show.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert show: %w", err)
	}

	return nil
}

// Get retrieves a show by ID, excluding soft-deleted shows
func (r *ShowRepository) Get(id string) (*models.Show, error) {
	return r.getWhere("id = ?", id)
}

// GetBySlug retrieves a show by its unique slug.
func (r *ShowRepository) GetBySlug(slug string) (*models.Show, error) {
	return r.getWhere("slug = ?", slug)
}

func (r *ShowRepository) getWhere(clause string, args ...any) (*models.Show, error) {
	query := `SELECT ` + showColumns + ` FROM shows WHERE ` + clause + ` AND deleted_at IS NULL`

	show, err := scanShow(r.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %v", shared.ErrShowNotFound, args[0])
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query show: %w", err)
	}

	return show, nil
}

// Update modifies an existing show in the database
func (r *ShowRepository) Update(show *models.Show) error {
	if err := show.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	show.SetUpdatedAt(now)

	query := `
		UPDATE shows
		SET name = ?, slug = ?, published = ?, is_band = ?, data = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		show.Name(), show.Slug(), show.Published(), show.IsBand(),
		nullableBytes(show.Data()), now, show.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update show: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("show not found or already deleted: %s", show.ID())
	}

	return nil
}

// SaveData stores the given JSON document as the show data, syncing the
// show's metadata columns from the document.
func (r *ShowRepository) SaveData(show *models.Show, data []byte) error {
	if err := show.ApplyData(data); err != nil {
		return err
	}
	return r.Update(show)
}

// Delete soft-deletes a show by ID
func (r *ShowRepository) Delete(id string) error {
	query := `
		UPDATE shows
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete show: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("show not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all shows matching the given criteria, excluding soft-deleted shows
func (r *ShowRepository) List(criteria map[string]any) ([]*models.Show, error) {
	query := `SELECT ` + showColumns + ` FROM shows WHERE deleted_at IS NULL`

	args := []any{}

	if owner, ok := criteria["owner_id"].(string); ok && owner != "" {
		query += " AND owner_id = ?"
		args = append(args, owner)
	}
	if band, ok := criteria["is_band"].(bool); ok {
		query += " AND is_band = ?"
		args = append(args, band)
	}
	if published, ok := criteria["published"].(bool); ok {
		query += " AND published = ?"
		args = append(args, published)
	}

	query += " ORDER BY sequence ASC"

	return r.queryShows(query, args...)
}

// ListBand retrieves band shows added in the given calendar year.
// When publishedOnly is set, unpublished shows are excluded.
func (r *ShowRepository) ListBand(year int, publishedOnly bool) ([]*models.Show, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(1, 0, 0)

	query := `SELECT ` + showColumns + ` FROM shows
		WHERE deleted_at IS NULL AND is_band = 1 AND date_added >= ? AND date_added < ?`
	args := []any{start, end}

	if publishedOnly {
		query += " AND published = 1"
	}

	query += " ORDER BY sequence ASC"

	return r.queryShows(query, args...)
}

// ListOwned retrieves the non-band shows owned by the given user.
func (r *ShowRepository) ListOwned(ownerID string) ([]*models.Show, error) {
	query := `SELECT ` + showColumns + ` FROM shows
		WHERE deleted_at IS NULL AND owner_id = ? AND is_band = 0
		ORDER BY sequence ASC`

	return r.queryShows(query, ownerID)
}

// NameExists reports whether a show with the given name exists.
func (r *ShowRepository) NameExists(name string) (bool, error) {
	var exists bool
	err := r.db.QueryRow("SELECT EXISTS(SELECT 1 FROM shows WHERE name = ? AND deleted_at IS NULL)", name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check show name: %w", err)
	}
	return exists, nil
}

func (r *ShowRepository) slugExists(slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRow("SELECT EXISTS(SELECT 1 FROM shows WHERE slug = ? AND deleted_at IS NULL)", slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}

func (r *ShowRepository) uniqueSlug(slug string) (string, error) {
	candidate := slug
	for i := 1; ; i++ {
		taken, err := r.slugExists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", slug, i)
	}
}

func (r *ShowRepository) queryShows(query string, args ...any) ([]*models.Show, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shows: %w", err)
	}
	defer rows.Close()

	var shows []*models.Show
	for rows.Next() {
		show, err := scanShow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan show: %w", err)
		}
		shows = append(shows, show)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return shows, nil
}

func scanShow(row scanner) (*models.Show, error) {
	var (
		id        string
		sequence  int
		name      string
		slug      string
		ownerID   string
		published bool
		band      bool
		data      []byte
		dateAdded time.Time
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &name, &slug, &ownerID, &published, &band, &data,
		&dateAdded, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	show := models.NewShow(sequence, name, ownerID, band)
	show.SetID(id)
	show.SetSlug(slug)
	show.SetPublished(published)
	show.SetRawData(data)
	show.SetDateAdded(dateAdded)
	show.SetCreatedAt(createdAt)
	show.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		show.SetDeletedAt(&deletedAt.Time)
	}

	return show, nil
}

func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
