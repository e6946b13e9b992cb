package account

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Role controls what an account may do within its restaurant.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleStaff      Role = "staff"
	RoleSuperadmin Role = "superadmin"
)

// Account is a staff login stored in the shared control-plane database,
// outside any restaurant partition. RestaurantName ties the account to its
// restaurant and drives tenant resolution for authenticated requests.
type Account struct {
	ID             bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string        `bson:"name" json:"name"`
	Email          string        `bson:"email" json:"email"`
	PasswordHash   string        `bson:"password" json:"-"`
	Role           Role          `bson:"role" json:"role"`
	RestaurantName string        `bson:"restaurantName" json:"restaurantName"`
	CreatedAt      time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time     `bson:"updatedAt" json:"updatedAt"`
}
