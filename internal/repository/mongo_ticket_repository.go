package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

const (
	ticketsCollection     = "tickets"
	specialistsCollection = "specialists"
)

// ticketDocument is the bson shape of a ticket.
type ticketDocument struct {
	ID             string     `bson:"id"`
	TicketNumber   string     `bson:"ticket_number"`
	Title          string     `bson:"title"`
	Description    string     `bson:"description"`
	Category       string     `bson:"category"`
	Priority       string     `bson:"priority"`
	Status         string     `bson:"status"`
	RequesterName  string     `bson:"requester_name"`
	RequesterEmail string     `bson:"requester_email"`
	RequesterPhone *string    `bson:"requester_phone"`
	AssignedTo     *string    `bson:"assigned_to"`
	CreatedAt      time.Time  `bson:"created_at"`
	UpdatedAt      time.Time  `bson:"updated_at"`
	ResolvedAt     *time.Time `bson:"resolved_at"`
}

type groupCount struct {
	Key   string `bson:"_id"`
	Count int64  `bson:"count"`
}

type mongoTicketRepository struct {
	collection *mongo.Collection
}

// NewMongoTicketRepository returns a ticket repository backed by the
// "tickets" collection, creating its indexes first.
func NewMongoTicketRepository(ctx context.Context, db *mongo.Database) (TicketRepository, error) {
	collection := db.Collection(ticketsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "ticket_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "assigned_to", Value: 1}}},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("create ticket indexes: %w", err)
	}

	return &mongoTicketRepository{collection: collection}, nil
}

func (r *mongoTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	_, err := r.collection.InsertOne(ctx, toTicketDocument(ticket))
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateNumber
	}
	return err
}

func (r *mongoTicketRepository) ApplyPatch(ctx context.Context, id string, patch domain.TicketPatch) error {
	set := bson.M{"updated_at": patch.UpdatedAt}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.AssignedTo != nil {
		set["assigned_to"] = *patch.AssignedTo
	}
	if patch.Priority != nil {
		set["priority"] = string(*patch.Priority)
	}
	if patch.ResolvedAt != nil {
		set["resolved_at"] = *patch.ResolvedAt
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *mongoTicketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	return r.findOne(ctx, bson.M{"ticket_number": number})
}

func (r *mongoTicketRepository) findOne(ctx context.Context, filter bson.M) (*domain.Ticket, error) {
	var doc ticketDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *mongoTicketRepository) LatestNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	filter := bson.M{"ticket_number": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "ticket_number", Value: -1}}).
		SetProjection(bson.M{"ticket_number": 1})

	var doc ticketDocument
	if err := r.collection.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil
		}
		return "", err
	}
	return doc.TicketNumber, nil
}

func (r *mongoTicketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "ticket_number", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.collection.Find(ctx, mongoTicketFilter(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []ticketDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	result := make([]domain.Ticket, 0, len(docs))
	for i := range docs {
		result = append(result, *docs[i].toDomain())
	}
	return result, nil
}

func (r *mongoTicketRepository) Count(ctx context.Context, filter TicketFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, mongoTicketFilter(filter))
}

func (r *mongoTicketRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	return r.aggregateCounts(ctx, pipeline)
}

func (r *mongoTicketRepository) CountBySpecialist(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"assigned_to": bson.M{"$ne": nil}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: specialistsCollection},
			{Key: "localField", Value: "assigned_to"},
			{Key: "foreignField", Value: "id"},
			{Key: "as", Value: "specialist"},
		}}},
		{{Key: "$unwind", Value: "$specialist"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$specialist.name"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	return r.aggregateCounts(ctx, pipeline)
}

func (r *mongoTicketRepository) aggregateCounts(ctx context.Context, pipeline mongo.Pipeline) (map[string]int64, error) {
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []groupCount
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(groups))
	for _, group := range groups {
		result[group.Key] = group.Count
	}
	return result, nil
}

func mongoTicketFilter(filter TicketFilter) bson.M {
	query := bson.M{}
	if filter.Status != nil {
		query["status"] = string(*filter.Status)
	}
	if filter.AssignedTo != nil {
		query["assigned_to"] = *filter.AssignedTo
	}
	if filter.CreatedFrom != nil || filter.CreatedTo != nil {
		created := bson.M{}
		if filter.CreatedFrom != nil {
			created["$gte"] = *filter.CreatedFrom
		}
		if filter.CreatedTo != nil {
			created["$lte"] = *filter.CreatedTo
		}
		query["created_at"] = created
	}
	return query
}

func toTicketDocument(t *domain.Ticket) ticketDocument {
	return ticketDocument{
		ID:             t.ID,
		TicketNumber:   t.TicketNumber,
		Title:          t.Title,
		Description:    t.Description,
		Category:       string(t.Category),
		Priority:       string(t.Priority),
		Status:         string(t.Status),
		RequesterName:  t.RequesterName,
		RequesterEmail: t.RequesterEmail,
		RequesterPhone: t.RequesterPhone,
		AssignedTo:     t.AssignedTo,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		ResolvedAt:     t.ResolvedAt,
	}
}

func (d *ticketDocument) toDomain() *domain.Ticket {
	return &domain.Ticket{
		ID:             d.ID,
		TicketNumber:   d.TicketNumber,
		Title:          d.Title,
		Description:    d.Description,
		Category:       domain.TicketCategory(d.Category),
		Priority:       domain.TicketPriority(d.Priority),
		Status:         domain.TicketStatus(d.Status),
		RequesterName:  d.RequesterName,
		RequesterEmail: d.RequesterEmail,
		RequesterPhone: d.RequesterPhone,
		AssignedTo:     d.AssignedTo,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
		ResolvedAt:     d.ResolvedAt,
	}
}
