package store

import (
	"context"
	"fmt"

	"docchat/internal/models"

	"gorm.io/gorm"
)

// GormDocumentStore is a DocumentStore backed by a relational database
// through GORM.
type GormDocumentStore struct {
	db *gorm.DB
}

// NewGormDocumentStore migrates the documents table and returns the store.
func NewGormDocumentStore(db *gorm.DB) (*GormDocumentStore, error) {
	if err := db.AutoMigrate(&models.Document{}); err != nil {
		return nil, fmt.Errorf("failed to migrate documents table: %w", err)
	}
	return &GormDocumentStore{db: db}, nil
}

// Create inserts a new document record.
func (s *GormDocumentStore) Create(ctx context.Context, doc *models.Document) error {
	return s.db.WithContext(ctx).Create(doc).Error
}

// List returns all document records in creation order.
func (s *GormDocumentStore) List(ctx context.Context) ([]*models.Document, error) {
	var docs []*models.Document
	result := s.db.WithContext(ctx).Order("created_at").Find(&docs)
	if result.Error != nil {
		return nil, result.Error
	}
	return docs, nil
}

// Clear deletes every document record.
func (s *GormDocumentStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Document{}).Error
}

// compile-time check to ensure GormDocumentStore implements the DocumentStore interface
var _ DocumentStore = (*GormDocumentStore)(nil)
