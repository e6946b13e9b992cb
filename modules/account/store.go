package account

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Store persists accounts in the shared control-plane database.
type Store interface {
	Create(ctx context.Context, acc *Account) error
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*Account, error)
}

const collectionName = "users"

type mongoStore struct {
	coll *mongo.Collection
}

// NewStore returns a Store backed by the given database's users collection.
func NewStore(db *mongo.Database) Store {
	return &mongoStore{coll: db.Collection(collectionName)}
}

// EnsureIndexes creates the unique email index. Call once at startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(collectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *mongoStore) Create(ctx context.Context, acc *Account) error {
	now := time.Now().UTC()
	if acc.ID.IsZero() {
		acc.ID = bson.NewObjectID()
	}
	acc.CreatedAt = now
	acc.UpdatedAt = now

	if _, err := s.coll.InsertOne(ctx, acc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return errors.Join(ErrFailedToCreate, err)
	}
	return nil
}

func (s *mongoStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	var acc Account
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&acc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &acc, nil
}

func (s *mongoStore) FindByID(ctx context.Context, id bson.ObjectID) (*Account, error) {
	var acc Account
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&acc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &acc, nil
}
