// Package service implements the user app's business logic.
package service

import (
	"context"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"go.mongodb.org/mongo-driver/bson"
	mongoLib "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Laisky/promptbox/internal/web/user/dao"
)

// Users user service
type Users struct {
	logger glog.Logger
	dao    *dao.User
}

// New create new user service
func New(logger glog.Logger, dao *dao.User) *Users {
	return &Users{
		logger: logger,
		dao:    dao,
	}
}

// Setup prepares the users collection,
// account uniqueness is enforced by a unique index.
func (s *Users) Setup(ctx context.Context) error {
	col := s.dao.GetUsersCol()
	if _, err := col.Indexes().CreateOne(ctx, mongoLib.IndexModel{
		Keys: bson.M{
			"account": 1,
		},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return errors.Wrap(err, "create index for account")
	}

	return nil
}
