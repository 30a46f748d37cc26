package dao

import (
	"context"

	"github.com/Laisky/errors/v2"
	gcrypto "github.com/Laisky/go-utils/v6/crypto"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/promptbox/internal/web/user/model"
	"github.com/Laisky/promptbox/library/db/mongo"
)

// ValidateLogin validate user login.
// Unknown account and wrong password both map to ErrInvalidCredentials.
func (d *User) ValidateLogin(ctx context.Context, account, rawPassword string) (u *model.User, err error) {
	d.logger.Debug("ValidateLogin", zap.String("account", account))
	u = &model.User{}
	if err = d.GetUsersCol().
		FindOne(ctx, bson.D{{Key: "account", Value: account}}).
		Decode(u); err != nil {
		if mongo.NotFound(err) {
			return nil, errors.WithStack(model.ErrInvalidCredentials)
		}

		return nil, errors.Wrapf(err, "find user %q", account)
	}

	if err = gcrypto.VerifyHashedPassword([]byte(rawPassword), u.Password); err != nil {
		return nil, errors.WithStack(model.ErrInvalidCredentials)
	}

	return u, nil
}

// GetUserByID load one user by id.
func (d *User) GetUserByID(ctx context.Context, uid primitive.ObjectID) (u *model.User, err error) {
	u = &model.User{}
	if err = d.GetUsersCol().
		FindOne(ctx, bson.D{{Key: "_id", Value: uid}}).
		Decode(u); err != nil {
		if mongo.NotFound(err) {
			return nil, errors.WithStack(model.ErrUserNotFound)
		}

		return nil, errors.Wrapf(err, "find user %q", uid.Hex())
	}

	return u, nil
}
