// Package webctx carries per-request values and the JSON error shape
// shared by all controllers.
package webctx

import (
	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const keyUserID = "promptbox_user_id"

// ErrNoUser indicates no authenticated user is attached to the request.
var ErrNoUser = errors.New("no authenticated user in request")

// SetUserID attaches the authenticated user id to the request context.
func SetUserID(ctx *gin.Context, uid primitive.ObjectID) {
	ctx.Set(keyUserID, uid)
}

// UserID returns the authenticated user id attached by the auth middleware.
func UserID(ctx *gin.Context) (primitive.ObjectID, error) {
	v, ok := ctx.Get(keyUserID)
	if !ok {
		return primitive.NilObjectID, errors.WithStack(ErrNoUser)
	}

	uid, ok := v.(primitive.ObjectID)
	if !ok || uid.IsZero() {
		return primitive.NilObjectID, errors.WithStack(ErrNoUser)
	}

	return uid, nil
}

// AbortErr writes the uniform error body and stops the handler chain.
func AbortErr(ctx *gin.Context, status int, msg string) {
	ctx.AbortWithStatusJSON(status, gin.H{"error": msg})
}
