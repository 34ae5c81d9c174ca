// Package postgres reads the intranet's documents table. The table is owned
// by the file-sharing subsystem; this repository never writes to it.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/workhub/intranet-assistant/internal/core/domain"
)

type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

const documentColumns = `id, name, storage_kind, storage_path, external_url, mime_type, extension, owner_id, departments, shared_with, is_public, ai_enabled, created_at, updated_at`

// FindEligible returns documents approved for AI grounding that the user may
// view: owned, explicitly shared, public, or visible to one of the user's
// departments. Link documents have no extractable bytes and are excluded here.
func (r *CatalogRepository) FindEligible(ctx context.Context, user domain.User) ([]domain.Document, error) {
	departments := user.Departments
	if departments == nil {
		departments = []string{}
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE ai_enabled = TRUE
  AND storage_kind = $3
  AND (owner_id = $1 OR is_public = TRUE OR shared_with ? $1 OR departments ?| $2)
ORDER BY created_at, id
`, user.ID, departments, string(domain.StorageFile))
	if err != nil {
		return nil, fmt.Errorf("query eligible documents: %w", err)
	}
	defer rows.Close()

	var out []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate eligible documents: %w", err)
	}
	return out, nil
}

func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
		}
		return nil, err
	}
	return &doc, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (domain.Document, error) {
	var doc domain.Document
	var kind string
	var departmentsRaw, sharedRaw []byte

	err := row.Scan(
		&doc.ID, &doc.Name, &kind, &doc.StoragePath, &doc.ExternalURL, &doc.MimeType, &doc.Extension,
		&doc.OwnerID, &departmentsRaw, &sharedRaw, &doc.IsPublic, &doc.AIEnabled, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Document{}, err
		}
		return domain.Document{}, fmt.Errorf("scan document: %w", err)
	}

	doc.StorageKind = domain.StorageKind(kind)
	if len(departmentsRaw) > 0 {
		if err := json.Unmarshal(departmentsRaw, &doc.Departments); err != nil {
			return domain.Document{}, fmt.Errorf("unmarshal departments: %w", err)
		}
	}
	if len(sharedRaw) > 0 {
		if err := json.Unmarshal(sharedRaw, &doc.SharedWith); err != nil {
			return domain.Document{}, fmt.Errorf("unmarshal shared_with: %w", err)
		}
	}
	return doc, nil
}
