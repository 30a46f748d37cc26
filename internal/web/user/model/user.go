package model

import (
	"time"

	gutils "github.com/Laisky/go-utils/v6"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account that owns projects.
type User struct {
	// ID unique identifier for the user
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	// CreatedAt registration time
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	// ModifiedAt last profile update
	ModifiedAt time.Time `bson:"modified_at" json:"modified_at"`
	// Username display name
	Username string `bson:"username" json:"username"`
	// Account login account, lowercase email
	Account string `bson:"account" json:"account"`
	// Password hashed password, never serialized outward
	Password string `bson:"password" json:"-"`
}

// GetID get id
func (u *User) GetID() string {
	return u.ID.Hex()
}

// NewUser create a new user
func NewUser() *User {
	now := gutils.Clock.GetUTCNow()
	return &User{
		ID:         primitive.NewObjectID(),
		CreatedAt:  now,
		ModifiedAt: now,
	}
}
