package file

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

const metadataColumns = `id, name, extension, type, size_bytes, url, owner_id, account_id, users, object_id, created_at, updated_at`

// Repository provides access to file metadata storage.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new file repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new metadata document.
func (r *Repository) Create(ctx context.Context, meta Metadata) (Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO files (id, name, extension, type, size_bytes, url, owner_id, account_id, users, object_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + metadataColumns + `;`

	row := r.pool.QueryRow(ctx, query,
		meta.ID,
		meta.Name,
		meta.Extension,
		string(meta.Type),
		meta.SizeBytes,
		meta.URL,
		meta.OwnerID,
		meta.AccountID,
		meta.Users,
		meta.ObjectID,
	)

	var stored Metadata
	if err := scanMetadata(row, &stored); err != nil {
		return Metadata{}, fmt.Errorf("create file metadata: %w", err)
	}
	return stored, nil
}

// List returns metadata documents visible to the accessor, applying the
// composed filters.
func (r *Repository) List(ctx context.Context, accessor Accessor, query ListQuery) ([]Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tail, args := query.Build(accessor)
	rows, err := r.pool.Query(ctx, `SELECT `+metadataColumns+` FROM files `+tail+`;`, args...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	return collectMetadata(rows)
}

// Get fetches a single document honoring the access predicate.
func (r *Repository) Get(ctx context.Context, accessor Accessor, fileID uuid.UUID) (Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT ` + metadataColumns + `
FROM files
WHERE id = $1 AND (owner_id = $2 OR $3 = ANY(users));`

	var meta Metadata
	if err := scanMetadata(r.pool.QueryRow(ctx, query, fileID, accessor.UserID, accessor.Email), &meta); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Metadata{}, ErrFileNotFound
		}
		return Metadata{}, fmt.Errorf("get file metadata: %w", err)
	}
	return meta, nil
}

// Rename updates only the name field of the owner's document.
func (r *Repository) Rename(ctx context.Context, ownerID, fileID uuid.UUID, newName string) (Metadata, error) {
	return r.update(ctx, ownerID, fileID, `name = $3`, newName)
}

// ReplaceUsers overwrites the entire share list of the owner's document.
func (r *Repository) ReplaceUsers(ctx context.Context, ownerID, fileID uuid.UUID, emails []string) (Metadata, error) {
	return r.update(ctx, ownerID, fileID, `users = $3`, emails)
}

func (r *Repository) update(ctx context.Context, ownerID, fileID uuid.UUID, assignment string, value any) (Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE files
SET ` + assignment + `, updated_at = NOW()
WHERE id = $1 AND owner_id = $2
RETURNING ` + metadataColumns + `;`

	var meta Metadata
	if err := scanMetadata(r.pool.QueryRow(ctx, query, fileID, ownerID, value), &meta); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Metadata{}, ErrFileNotFound
		}
		return Metadata{}, fmt.Errorf("update file metadata: %w", err)
	}
	return meta, nil
}

// Delete removes the owner's document and returns the deleted record.
func (r *Repository) Delete(ctx context.Context, ownerID, fileID uuid.UUID) (Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
DELETE FROM files
WHERE id = $1 AND owner_id = $2
RETURNING ` + metadataColumns + `;`

	var meta Metadata
	if err := scanMetadata(r.pool.QueryRow(ctx, query, fileID, ownerID), &meta); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Metadata{}, ErrFileNotFound
		}
		return Metadata{}, fmt.Errorf("delete file metadata: %w", err)
	}
	return meta, nil
}

// ListOwned returns every document owned by the user, without shared files.
func (r *Repository) ListOwned(ctx context.Context, ownerID uuid.UUID) ([]Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT `+metadataColumns+` FROM files WHERE owner_id = $1;`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list owned files: %w", err)
	}
	defer rows.Close()

	return collectMetadata(rows)
}

func collectMetadata(rows pgx.Rows) ([]Metadata, error) {
	var files []Metadata
	for rows.Next() {
		var meta Metadata
		if err := scanMetadata(rows, &meta); err != nil {
			return nil, fmt.Errorf("scan file metadata: %w", err)
		}
		files = append(files, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return files, nil
}

func scanMetadata(row pgx.Row, meta *Metadata) error {
	var fileType string
	err := row.Scan(
		&meta.ID,
		&meta.Name,
		&meta.Extension,
		&fileType,
		&meta.SizeBytes,
		&meta.URL,
		&meta.OwnerID,
		&meta.AccountID,
		&meta.Users,
		&meta.ObjectID,
		&meta.CreatedAt,
		&meta.UpdatedAt,
	)
	if err != nil {
		return err
	}
	meta.Type = Type(fileType)
	return nil
}
