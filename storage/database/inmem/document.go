package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/pathwayhq/pathway/core/document"
)

type documentRepository struct {
	db *documentTable
}

var _ document.Repository = (*documentRepository)(nil) // interface compliance check

func NewDocumentRepository(db *DB) document.Repository {
	return &documentRepository{db: db.document}
}

func (repo *documentRepository) QueryDocuments(_ context.Context, filter *document.QueryFilter) ([]document.Document, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	docs := make([]document.Document, 0)
	for _, d := range repo.db.table {
		if filter.Match(*d) {
			docs = append(docs, *d)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].UpdatedAt.After(docs[j].UpdatedAt) })
	return docs, nil
}

func (repo *documentRepository) GetDocument(_ context.Context, id string) (document.Document, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if d, ok := repo.db.table[id]; ok {
		return *d, nil
	}
	return document.Document{}, document.ErrNotFound
}

func (repo *documentRepository) GetUserDocument(_ context.Context, userID, docType string) (document.Document, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, d := range repo.db.table {
		if d.UserID == userID && d.DocumentType == docType {
			return *d, nil
		}
	}
	return document.Document{}, document.ErrNotFound
}

func (repo *documentRepository) UpsertDocument(_ context.Context, d document.Document) (document.Document, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.UserID == d.UserID && existing.DocumentType == d.DocumentType {
			d.ID = existing.ID
			break
		}
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	repo.db.table[d.ID] = &d
	return d, nil
}
