package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Repository is the per-tenant order store.
type Repository interface {
	Create(ctx context.Context, ord *Order) error
	List(ctx context.Context, filter ListFilter) ([]Order, error)
	Get(ctx context.Context, id bson.ObjectID) (*Order, error)
	UpdateStatus(ctx context.Context, id bson.ObjectID, next Status) (*Order, error)
	UpdatePaymentStatus(ctx context.Context, id bson.ObjectID, next PaymentStatus) (*Order, error)
	UpdateItemStatus(ctx context.Context, id bson.ObjectID, index int, next ItemStatus) (*Order, error)
	DailyStats(ctx context.Context, now time.Time) (*DailyStats, error)
}

// ListFilter narrows List results. Zero value lists everything newest first.
type ListFilter struct {
	Status *Status
	Limit  int64
}

const ordersCollection = "orders"

type mongoRepo struct {
	coll *mongo.Collection
}

// NewRepository binds an order repository to the tenant database.
func NewRepository(db *mongo.Database) Repository {
	return &mongoRepo{coll: db.Collection(ordersCollection)}
}

func (r *mongoRepo) Create(ctx context.Context, ord *Order) error {
	now := time.Now().UTC()
	if ord.ID.IsZero() {
		ord.ID = bson.NewObjectID()
	}
	ord.CreatedAt = now
	ord.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, ord)
	return err
}

func (r *mongoRepo) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	query := bson.M{}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	var out []Order
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoRepo) Get(ctx context.Context, id bson.ObjectID) (*Order, error) {
	var ord Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&ord); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ord, nil
}

func (r *mongoRepo) UpdateStatus(ctx context.Context, id bson.ObjectID, next Status) (*Order, error) {
	ord, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ord.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, ord.Status, next)
	}
	updated, err := r.setFields(ctx, transitionFilter(id, "status", ord.Status), bson.M{"status": next})
	if errors.Is(err, ErrNotFound) {
		// Orders are never deleted, so a vanished filter match means a
		// concurrent writer moved the order first.
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, ord.Status, next)
	}
	return updated, err
}

func (r *mongoRepo) UpdatePaymentStatus(ctx context.Context, id bson.ObjectID, next PaymentStatus) (*Order, error) {
	ord, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ord.PaymentStatus.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, ord.PaymentStatus, next)
	}
	updated, err := r.setFields(ctx, transitionFilter(id, "paymentStatus", ord.PaymentStatus), bson.M{"paymentStatus": next})
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, ord.PaymentStatus, next)
	}
	return updated, err
}

func (r *mongoRepo) UpdateItemStatus(ctx context.Context, id bson.ObjectID, index int, next ItemStatus) (*Order, error) {
	if !validItemStatus(next) {
		return nil, fmt.Errorf("%w: unknown item status %q", ErrInvalidInput, next)
	}
	ord, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(ord.Items) {
		return nil, fmt.Errorf("%w: %d", ErrLineItemOutOfRange, index)
	}
	return r.setFields(ctx, bson.M{"_id": id}, bson.M{fmt.Sprintf("items.%d.status", index): next})
}

// transitionFilter matches the order only while it still holds the status
// observed at validation time. The conditional write keeps concurrent
// transitions from stacking into a composite the state machine forbids.
func transitionFilter(id bson.ObjectID, field string, current any) bson.M {
	return bson.M{"_id": id, field: current}
}

func (r *mongoRepo) setFields(ctx context.Context, filter, set bson.M) (*Order, error) {
	set["updatedAt"] = time.Now().UTC()

	var ord Order
	err := r.coll.FindOneAndUpdate(ctx,
		filter,
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&ord)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ord, nil
}

func (r *mongoRepo) DailyStats(ctx context.Context, now time.Time) (*DailyStats, error) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": startOfDay}}}},
		{{Key: "$facet", Value: bson.M{
			"orders": bson.A{bson.M{"$count": "count"}},
			"revenue": bson.A{
				bson.M{"$match": bson.M{"paymentStatus": PaymentPaid}},
				bson.M{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$totalAmount"}}},
			},
			"pending": bson.A{
				bson.M{"$match": bson.M{"status": StatusPending}},
				bson.M{"$count": "count"},
			},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	var results []struct {
		Orders []struct {
			Count int64 `bson:"count"`
		} `bson:"orders"`
		Revenue []struct {
			Total float64 `bson:"total"`
		} `bson:"revenue"`
		Pending []struct {
			Count int64 `bson:"count"`
		} `bson:"pending"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}

	stats := &DailyStats{}
	if len(results) > 0 {
		if len(results[0].Orders) > 0 {
			stats.OrdersToday = results[0].Orders[0].Count
		}
		if len(results[0].Revenue) > 0 {
			stats.RevenueToday = results[0].Revenue[0].Total
		}
		if len(results[0].Pending) > 0 {
			stats.PendingCount = results[0].Pending[0].Count
		}
	}
	return stats, nil
}
