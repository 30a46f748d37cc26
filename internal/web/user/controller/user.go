// Package controller exposes the user app over HTTP.
package controller

import (
	"context"
	"net/http"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/promptbox/internal/web/user/dto"
	"github.com/Laisky/promptbox/internal/web/user/model"
	"github.com/Laisky/promptbox/internal/web/user/service"
	"github.com/Laisky/promptbox/internal/web/webctx"
	"github.com/Laisky/promptbox/library/jwt"
	"github.com/Laisky/promptbox/library/validate"
)

// UserService is what the controller needs from the user service.
type UserService interface {
	Register(ctx context.Context, account, password, displayName string) (*model.User, error)
	Login(ctx context.Context, account, password string) (*model.User, error)
	Profile(ctx context.Context, uid primitive.ObjectID) (*model.User, error)
	UpdateProfile(ctx context.Context, uid primitive.ObjectID,
		params service.UpdateProfileParams) (*model.User, error)
}

// Users user controller
type Users struct {
	logger glog.Logger
	svc    UserService
	jwt    *jwt.JWT
	debug  bool
}

// New create new user controller
func New(logger glog.Logger, svc UserService, issuer *jwt.JWT, debug bool) *Users {
	return &Users{
		logger: logger,
		svc:    svc,
		jwt:    issuer,
		debug:  debug,
	}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type updateProfileRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

type authResponse struct {
	User  *dto.UserView `json:"user"`
	Token string        `json:"token"`
}

// Register handles POST /api/auth/register.
func (c *Users) Register(ctx *gin.Context) {
	var req registerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		webctx.AbortErr(ctx, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := c.svc.Register(ctx.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, model.ErrAccountExists) {
			webctx.AbortErr(ctx, http.StatusBadRequest, model.ErrAccountExists.Error())
			return
		}

		c.abortDomainErr(ctx, err, "register user")
		return
	}

	token, err := c.jwt.Sign(user.GetID(), user.Username)
	if err != nil {
		c.abortInternalErr(ctx, err, "issue token")
		return
	}

	ctx.JSON(http.StatusCreated, authResponse{User: dto.NewUserView(user), Token: token})
}

// Login handles POST /api/auth/login.
func (c *Users) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		webctx.AbortErr(ctx, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := c.svc.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.logger.Debug("login rejected", zap.Error(err))
		webctx.AbortErr(ctx, http.StatusUnauthorized, maskLoginError(err).Error())
		return
	}

	token, err := c.jwt.Sign(user.GetID(), user.Username)
	if err != nil {
		c.abortInternalErr(ctx, err, "issue token")
		return
	}

	ctx.JSON(http.StatusOK, authResponse{User: dto.NewUserView(user), Token: token})
}

// Profile handles GET /api/users/profile.
func (c *Users) Profile(ctx *gin.Context) {
	uid, err := webctx.UserID(ctx)
	if err != nil {
		webctx.AbortErr(ctx, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := c.svc.Profile(ctx.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			// valid token for a deleted account
			webctx.AbortErr(ctx, http.StatusUnauthorized, "authentication required")
			return
		}

		c.abortInternalErr(ctx, err, "load profile")
		return
	}

	ctx.JSON(http.StatusOK, dto.NewUserView(user))
}

// UpdateProfile handles PUT /api/users/profile.
func (c *Users) UpdateProfile(ctx *gin.Context) {
	uid, err := webctx.UserID(ctx)
	if err != nil {
		webctx.AbortErr(ctx, http.StatusUnauthorized, "authentication required")
		return
	}

	var req updateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		webctx.AbortErr(ctx, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Name == nil && req.Password == nil {
		webctx.AbortErr(ctx, http.StatusBadRequest, "nothing to update")
		return
	}

	user, err := c.svc.UpdateProfile(ctx.Request.Context(), uid, service.UpdateProfileParams{
		Username: req.Name,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			webctx.AbortErr(ctx, http.StatusUnauthorized, "authentication required")
			return
		}

		c.abortDomainErr(ctx, err, "update profile")
		return
	}

	ctx.JSON(http.StatusOK, dto.NewUserView(user))
}

// abortDomainErr maps service rejections onto the error taxonomy.
func (c *Users) abortDomainErr(ctx *gin.Context, err error, op string) {
	if validate.IsError(err) {
		c.logger.Debug(op, zap.Error(err))
		webctx.AbortErr(ctx, http.StatusBadRequest, err.Error())
		return
	}

	c.abortInternalErr(ctx, err, op)
}

// abortInternalErr reports an unexpected failure,
// the underlying message is exposed only in debug mode.
func (c *Users) abortInternalErr(ctx *gin.Context, err error, op string) {
	c.logger.Error(op, zap.Error(err))
	msg := "internal server error"
	if c.debug {
		msg = err.Error()
	}
	webctx.AbortErr(ctx, http.StatusInternalServerError, msg)
}
