package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

type specialistDocument struct {
	ID     string `bson:"id"`
	Name   string `bson:"name"`
	Role   string `bson:"role"`
	Active bool   `bson:"active"`
}

type mongoSpecialistRepository struct {
	collection *mongo.Collection
}

// NewMongoSpecialistRepository returns a specialist repository backed by the
// "specialists" collection.
func NewMongoSpecialistRepository(ctx context.Context, db *mongo.Database) (SpecialistRepository, error) {
	collection := db.Collection(specialistsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("create specialist indexes: %w", err)
	}

	return &mongoSpecialistRepository{collection: collection}, nil
}

func (r *mongoSpecialistRepository) Create(ctx context.Context, specialist *domain.Specialist) error {
	_, err := r.collection.InsertOne(ctx, specialistDocument{
		ID:     specialist.ID,
		Name:   specialist.Name,
		Role:   specialist.Role,
		Active: specialist.Active,
	})
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateName
	}
	return err
}

func (r *mongoSpecialistRepository) GetByID(ctx context.Context, id string) (*domain.Specialist, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *mongoSpecialistRepository) GetByName(ctx context.Context, name string) (*domain.Specialist, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *mongoSpecialistRepository) findOne(ctx context.Context, filter bson.M) (*domain.Specialist, error) {
	var doc specialistDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *mongoSpecialistRepository) ListActive(ctx context.Context, limit int) ([]domain.Specialist, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []specialistDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	result := make([]domain.Specialist, 0, len(docs))
	for i := range docs {
		result = append(result, *docs[i].toDomain())
	}
	return result, nil
}

func (d *specialistDocument) toDomain() *domain.Specialist {
	return &domain.Specialist{
		ID:     d.ID,
		Name:   d.Name,
		Role:   d.Role,
		Active: d.Active,
	}
}
