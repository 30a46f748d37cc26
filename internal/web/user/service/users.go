package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	gcrypto "github.com/Laisky/go-utils/v6/crypto"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/promptbox/internal/web/user/model"
	"github.com/Laisky/promptbox/library/db/mongo"
	"github.com/Laisky/promptbox/library/validate"
)

const maxNameLen = 256

// UpdateProfileParams partial profile update, nil fields are left untouched.
type UpdateProfileParams struct {
	Username *string
	Password *string
}

// Register creates a new user with a hashed password.
func (s *Users) Register(ctx context.Context,
	account, password, displayName string) (u *model.User, err error) {
	account, err = sanitizeAccount(account)
	if err != nil {
		return nil, err
	}
	password = strings.TrimSpace(password)
	if password == "" {
		return nil, validate.Errorf("empty password")
	}
	displayName = strings.TrimSpace(displayName)
	if len([]rune(displayName)) > maxNameLen {
		return nil, validate.Errorf("name exceeds %d characters", maxNameLen)
	}

	col := s.dao.GetUsersCol()
	user := model.NewUser()
	user.Account = account
	user.Username = displayName

	// check duplicate before hashing, the unique index is the backstop
	{
		existing := new(model.User)
		if err = col.FindOne(ctx, bson.M{"account": account}).Decode(existing); err == nil {
			return nil, errors.WithStack(model.ErrAccountExists)
		} else if !mongo.NotFound(err) {
			return nil, errors.Wrapf(err, "check duplicate for %q", account)
		}
	}

	pwd, err := gcrypto.PasswordHash([]byte(password), gutils.HashTypeSha256)
	if err != nil {
		return nil, errors.Wrapf(err, "generate password hash for %q", account)
	}
	user.Password = pwd

	if _, err = col.InsertOne(ctx, user); err != nil {
		if mongo.DuplicateKey(err) {
			return nil, errors.WithStack(model.ErrAccountExists)
		}

		return nil, errors.Wrapf(err, "insert user %q", account)
	}

	s.logger.Info("insert new user", zap.String("account", account))
	return user, nil
}

// Login validates credentials and returns the user.
func (s *Users) Login(ctx context.Context, account, password string) (*model.User, error) {
	account = strings.ToLower(strings.TrimSpace(account))
	if account == "" || password == "" {
		return nil, errors.WithStack(model.ErrInvalidCredentials)
	}

	return s.dao.ValidateLogin(ctx, account, password)
}

// Profile loads one user by id.
func (s *Users) Profile(ctx context.Context, uid primitive.ObjectID) (*model.User, error) {
	return s.dao.GetUserByID(ctx, uid)
}

// UpdateProfile merges the given fields into the user record.
func (s *Users) UpdateProfile(ctx context.Context,
	uid primitive.ObjectID, params UpdateProfileParams) (u *model.User, err error) {
	set := bson.M{
		"modified_at": gutils.Clock.GetUTCNow(),
	}

	if params.Username != nil {
		name := strings.TrimSpace(*params.Username)
		if name == "" {
			return nil, validate.Errorf("empty name")
		}
		if len([]rune(name)) > maxNameLen {
			return nil, validate.Errorf("name exceeds %d characters", maxNameLen)
		}
		set["username"] = name
	}
	if params.Password != nil {
		password := strings.TrimSpace(*params.Password)
		if password == "" {
			return nil, validate.Errorf("empty password")
		}
		pwd, err := gcrypto.PasswordHash([]byte(password), gutils.HashTypeSha256)
		if err != nil {
			return nil, errors.Wrap(err, "generate password hash")
		}
		set["password"] = pwd
	}

	result, err := s.dao.GetUsersCol().
		UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$set": set})
	if err != nil {
		return nil, errors.Wrapf(err, "update user %q", uid.Hex())
	}
	if result.MatchedCount == 0 {
		return nil, errors.WithStack(model.ErrUserNotFound)
	}

	return s.dao.GetUserByID(ctx, uid)
}

// sanitizeAccount normalizes and validates a login account.
func sanitizeAccount(account string) (string, error) {
	account = strings.ToLower(strings.TrimSpace(account))
	if account == "" {
		return "", validate.Errorf("empty account")
	}

	addr, err := mail.ParseAddress(account)
	if err != nil || addr.Address != account {
		return "", validate.Errorf("account %q is not a valid email", account)
	}

	return account, nil
}
