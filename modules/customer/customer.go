package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var (
	ErrNotFound     = errors.New("customer not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Customer is a tenant-scoped guest record keyed by phone number. Visits
// accumulate through RecordVisit.
type Customer struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string        `bson:"name" json:"name"`
	Phone       string        `bson:"phone" json:"phone"`
	Visits      int64         `bson:"visits" json:"visits"`
	LastVisitAt time.Time     `bson:"lastVisitAt" json:"lastVisitAt"`
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
}

// Repository is the per-tenant customer store.
type Repository interface {
	List(ctx context.Context) ([]Customer, error)
	GetByPhone(ctx context.Context, phone string) (*Customer, error)
	RecordVisit(ctx context.Context, name, phone string) (*Customer, error)
}

const customersCollection = "customers"

type mongoRepo struct {
	coll *mongo.Collection
}

// NewRepository binds a customer repository to the tenant database.
func NewRepository(db *mongo.Database) Repository {
	return &mongoRepo{coll: db.Collection(customersCollection)}
}

func (r *mongoRepo) List(ctx context.Context) ([]Customer, error) {
	cursor, err := r.coll.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "lastVisitAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var out []Customer
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoRepo) GetByPhone(ctx context.Context, phone string) (*Customer, error) {
	var c Customer
	if err := r.coll.FindOne(ctx, bson.M{"phone": phone}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// RecordVisit upserts the customer by phone, bumping the visit counter. The
// name is refreshed on every visit so typo fixes stick.
func (r *mongoRepo) RecordVisit(ctx context.Context, name, phone string) (*Customer, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", ErrInvalidInput)
	}

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"name":        strings.TrimSpace(name),
			"lastVisitAt": now,
		},
		"$inc":         bson.M{"visits": 1},
		"$setOnInsert": bson.M{"createdAt": now},
	}

	var c Customer
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"phone": phone},
		update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
