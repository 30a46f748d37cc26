// Package dao contains the data access objects of the user app.
package dao

import (
	glog "github.com/Laisky/go-utils/v6/log"
	mongoLib "go.mongodb.org/mongo-driver/mongo"

	"github.com/Laisky/promptbox/library/db/mongo"
)

// User dao type
type User struct {
	logger glog.Logger
	db     mongo.DB
}

// New create new dao
func New(logger glog.Logger, db mongo.DB) *User {
	return &User{
		logger: logger,
		db:     db,
	}
}

// GetUsersCol get users collection
func (d *User) GetUsersCol() *mongoLib.Collection {
	return d.db.GetCol("users")
}
