package menu

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// CategoryStatus is the visibility state of a category.
type CategoryStatus string

const (
	CategoryActive   CategoryStatus = "active"
	CategoryInactive CategoryStatus = "inactive"
)

// Category groups menu items. Stored per tenant in the categories
// collection.
type Category struct {
	ID        bson.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name      string         `bson:"name" json:"name"`
	Icon      string         `bson:"icon,omitempty" json:"icon,omitempty"`
	Status    CategoryStatus `bson:"status" json:"status"`
	CreatedAt time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// Item is a sellable menu entry. Category references point at the same
// tenant's categories collection only.
type Item struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string        `bson:"name" json:"name"`
	Description string        `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64       `bson:"price" json:"price"`
	CategoryID  bson.ObjectID `bson:"category" json:"categoryId"`
	Available   bool          `bson:"available" json:"available"`
	ImageURL    string        `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt" json:"updatedAt"`
}
