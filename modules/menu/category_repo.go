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

// CategoryRepository is the per-tenant category store.
type CategoryRepository interface {
	Create(ctx context.Context, c *Category) error
	List(ctx context.Context) ([]Category, error)
	Get(ctx context.Context, id bson.ObjectID) (*Category, error)
	Update(ctx context.Context, id bson.ObjectID, upd CategoryUpdate) (*Category, error)
	Delete(ctx context.Context, id bson.ObjectID) error
	Exists(ctx context.Context, id bson.ObjectID) (bool, error)
}

// CategoryUpdate carries partial category changes; nil fields are left
// untouched.
type CategoryUpdate struct {
	Name   *string
	Icon   *string
	Status *CategoryStatus
}

const categoriesCollection = "categories"

type categoryRepo struct {
	coll *mongo.Collection
}

// NewCategoryRepository binds a category repository to the tenant database.
func NewCategoryRepository(db *mongo.Database) CategoryRepository {
	return &categoryRepo{coll: db.Collection(categoriesCollection)}
}

func (r *categoryRepo) Create(ctx context.Context, c *Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}
	if c.Status == "" {
		c.Status = CategoryActive
	}
	now := time.Now().UTC()
	if c.ID.IsZero() {
		c.ID = bson.NewObjectID()
	}
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, c)
	return err
}

func (r *categoryRepo) List(ctx context.Context) ([]Category, error) {
	cursor, err := r.coll.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []Category
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *categoryRepo) Get(ctx context.Context, id bson.ObjectID) (*Category, error) {
	var c Category
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepo) Update(ctx context.Context, id bson.ObjectID, upd CategoryUpdate) (*Category, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Name != nil {
		if strings.TrimSpace(*upd.Name) == "" {
			return nil, fmt.Errorf("%w: category name is required", ErrInvalidInput)
		}
		set["name"] = *upd.Name
	}
	if upd.Icon != nil {
		set["icon"] = *upd.Icon
	}
	if upd.Status != nil {
		if *upd.Status != CategoryActive && *upd.Status != CategoryInactive {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *upd.Status)
		}
		set["status"] = *upd.Status
	}

	var c Category
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepo) Delete(ctx context.Context, id bson.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *categoryRepo) Exists(ctx context.Context, id bson.ObjectID) (bool, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"_id": id},
		options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
