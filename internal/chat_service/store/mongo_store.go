package store

import (
	"context"

	"docchat/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDocumentStore is a DocumentStore backed by a MongoDB collection.
type MongoDocumentStore struct {
	collection *mongo.Collection
}

// NewMongoDocumentStore creates a MongoDocumentStore on the given collection.
func NewMongoDocumentStore(db *mongo.Database, collectionName string) *MongoDocumentStore {
	return &MongoDocumentStore{
		collection: db.Collection(collectionName),
	}
}

// Create inserts a new document record.
func (s *MongoDocumentStore) Create(ctx context.Context, doc *models.Document) error {
	_, err := s.collection.InsertOne(ctx, doc)
	return err
}

// List returns all document records in creation order.
func (s *MongoDocumentStore) List(ctx context.Context) ([]*models.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []*models.Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Clear deletes every document record.
func (s *MongoDocumentStore) Clear(ctx context.Context) error {
	_, err := s.collection.DeleteMany(ctx, bson.M{})
	return err
}

// compile-time check to ensure MongoDocumentStore implements the DocumentStore interface
var _ DocumentStore = (*MongoDocumentStore)(nil)
