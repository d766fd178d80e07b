package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/pathwayhq/pathway/core/document"
)

type documentRow struct {
	ID           string      `db:"id"`
	UserID       string      `db:"user_id"`
	DocumentType string      `db:"document_type"`
	FileURL      string      `db:"file_url"`
	Status       string      `db:"status"`
	ReviewNotes  null.String `db:"review_notes"`
	ReviewedBy   null.String `db:"reviewed_by"`
	ReviewedAt   null.Time   `db:"reviewed_at"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

type documentRepository struct {
	db *sqlx.DB
}

var _ document.Repository = (*documentRepository)(nil) // interface compliance check

func NewDocumentRepository(db *sqlx.DB) document.Repository {
	return &documentRepository{db: db}
}

func (repo documentRepository) boil(d document.Document) documentRow {
	return documentRow{
		ID:           d.ID,
		UserID:       d.UserID,
		DocumentType: d.DocumentType,
		FileURL:      d.FileURL,
		Status:       d.Status,
		ReviewNotes:  nullString(d.ReviewNotes),
		ReviewedBy:   nullString(d.ReviewedBy),
		ReviewedAt:   nullTimePtr(d.ReviewedAt),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

func (repo documentRepository) unboil(row documentRow) document.Document {
	return document.Document{
		ID:           row.ID,
		UserID:       row.UserID,
		DocumentType: row.DocumentType,
		FileURL:      row.FileURL,
		Status:       row.Status,
		ReviewNotes:  row.ReviewNotes.String,
		ReviewedBy:   row.ReviewedBy.String,
		ReviewedAt:   timePtr(row.ReviewedAt),
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

func (repo documentRepository) QueryDocuments(ctx context.Context, filter *document.QueryFilter) ([]document.Document, error) {
	w := new(where)
	if filter != nil {
		w.in("user_id", filter.UserIDs)
		if filter.DocumentType != "" {
			w.add("document_type = ?", filter.DocumentType)
		}
		if filter.Status != "" {
			w.add("status = ?", filter.Status)
		}
	}

	var rows []documentRow
	if err := w.selectContext(ctx, repo.db, &rows, "SELECT * FROM documents", " ORDER BY updated_at DESC"); err != nil {
		return nil, errors.Wrap(err, "selecting documents")
	}
	docs := make([]document.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, repo.unboil(row))
	}
	return docs, nil
}

func (repo documentRepository) GetDocument(ctx context.Context, id string) (document.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return document.Document{}, document.ErrNotFound
	}
	var row documentRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM documents WHERE id = $1", id); err != nil {
		return document.Document{}, trapNoRowsErr(err, document.ErrNotFound, "selecting document")
	}
	return repo.unboil(row), nil
}

func (repo documentRepository) GetUserDocument(ctx context.Context, userID, docType string) (document.Document, error) {
	var row documentRow
	const q = "SELECT * FROM documents WHERE user_id = $1 AND document_type = $2"
	if err := repo.db.GetContext(ctx, &row, q, userID, docType); err != nil {
		return document.Document{}, trapNoRowsErr(err, document.ErrNotFound, "selecting document")
	}
	return repo.unboil(row), nil
}

func (repo documentRepository) UpsertDocument(ctx context.Context, d document.Document) (document.Document, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	const q = `
	INSERT INTO documents (id, user_id, document_type, file_url, status, review_notes, reviewed_by, reviewed_at,
		created_at, updated_at)
	VALUES (:id, :user_id, :document_type, :file_url, :status, :review_notes, :reviewed_by, :reviewed_at,
		:created_at, :updated_at)
	ON CONFLICT ON CONSTRAINT documents_user_type_key DO UPDATE
	SET file_url = EXCLUDED.file_url, status = EXCLUDED.status, review_notes = EXCLUDED.review_notes,
		reviewed_by = EXCLUDED.reviewed_by, reviewed_at = EXCLUDED.reviewed_at, updated_at = EXCLUDED.updated_at
	RETURNING *`

	var row documentRow
	if err := namedGet(ctx, repo.db, &row, q, repo.boil(d)); err != nil {
		return document.Document{}, errors.Wrap(err, "upserting document")
	}
	return repo.unboil(row), nil
}
