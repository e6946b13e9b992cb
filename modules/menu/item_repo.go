package menu

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

// ItemRepository is the per-tenant menu item store.
type ItemRepository interface {
	Create(ctx context.Context, it *Item) error
	List(ctx context.Context, filter ItemFilter) ([]Item, error)
	Get(ctx context.Context, id bson.ObjectID) (*Item, error)
	Update(ctx context.Context, id bson.ObjectID, upd ItemUpdate) (*Item, error)
	Delete(ctx context.Context, id bson.ObjectID) error
	SetAvailability(ctx context.Context, id bson.ObjectID, available bool) (*Item, error)
	Exists(ctx context.Context, id bson.ObjectID) (bool, error)
}

// ItemFilter narrows List results.
type ItemFilter struct {
	CategoryID    *bson.ObjectID
	AvailableOnly bool
}

// ItemUpdate carries partial item changes; nil fields are left untouched.
type ItemUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	CategoryID  *bson.ObjectID
	ImageURL    *string
}

const itemsCollection = "menuitems"

type itemRepo struct {
	coll       *mongo.Collection
	categories CategoryRepository
}

// NewItemRepository binds an item repository to the tenant database. The
// category repository must belong to the same tenant: category references
// are validated against it and never cross partitions.
func NewItemRepository(db *mongo.Database, categories CategoryRepository) ItemRepository {
	return &itemRepo{coll: db.Collection(itemsCollection), categories: categories}
}

func (r *itemRepo) validateCategory(ctx context.Context, id bson.ObjectID) error {
	ok, err := r.categories.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidCategory, id.Hex())
	}
	return nil
}

func (r *itemRepo) Create(ctx context.Context, it *Item) error {
	switch {
	case strings.TrimSpace(it.Name) == "":
		return fmt.Errorf("%w: item name is required", ErrInvalidInput)
	case it.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	case it.CategoryID.IsZero():
		return fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if err := r.validateCategory(ctx, it.CategoryID); err != nil {
		return err
	}

	now := time.Now().UTC()
	if it.ID.IsZero() {
		it.ID = bson.NewObjectID()
	}
	it.CreatedAt = now
	it.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, it)
	return err
}

func (r *itemRepo) List(ctx context.Context, filter ItemFilter) ([]Item, error) {
	query := bson.M{}
	if filter.CategoryID != nil {
		query["category"] = *filter.CategoryID
	}
	if filter.AvailableOnly {
		query["available"] = true
	}

	cursor, err := r.coll.Find(ctx, query,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []Item
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *itemRepo) Get(ctx context.Context, id bson.ObjectID) (*Item, error) {
	var it Item
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&it); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &it, nil
}

func (r *itemRepo) Update(ctx context.Context, id bson.ObjectID, upd ItemUpdate) (*Item, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Name != nil {
		if strings.TrimSpace(*upd.Name) == "" {
			return nil, fmt.Errorf("%w: item name is required", ErrInvalidInput)
		}
		set["name"] = *upd.Name
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Price != nil {
		if *upd.Price < 0 {
			return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
		}
		set["price"] = *upd.Price
	}
	if upd.CategoryID != nil {
		if err := r.validateCategory(ctx, *upd.CategoryID); err != nil {
			return nil, err
		}
		set["category"] = *upd.CategoryID
	}
	if upd.ImageURL != nil {
		set["imageUrl"] = *upd.ImageURL
	}

	var it Item
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&it)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &it, nil
}

func (r *itemRepo) Delete(ctx context.Context, id bson.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *itemRepo) SetAvailability(ctx context.Context, id bson.ObjectID, available bool) (*Item, error) {
	var it Item
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"available": available, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&it)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &it, nil
}

func (r *itemRepo) Exists(ctx context.Context, id bson.ObjectID) (bool, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"_id": id},
		options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
