// Package controller exposes the chat forwarder over HTTP.
package controller

import (
	"context"
	"net/http"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/promptbox/internal/library/llm"
	chatSvc "github.com/Laisky/promptbox/internal/web/chat/service"
	projectModel "github.com/Laisky/promptbox/internal/web/project/model"
	"github.com/Laisky/promptbox/internal/web/webctx"
	"github.com/Laisky/promptbox/library/validate"
)

// ChatService is what the controller needs from the chat service.
type ChatService interface {
	Send(ctx context.Context, owner, projectID primitive.ObjectID,
		message string) (*llm.ChatResult, error)
}

// Chat chat controller
type Chat struct {
	logger glog.Logger
	svc    ChatService
	debug  bool
}

// New create new chat controller
func New(logger glog.Logger, svc ChatService, debug bool) *Chat {
	return &Chat{
		logger: logger,
		svc:    svc,
		debug:  debug,
	}
}

type sendRequest struct {
	Message string `json:"message" binding:"required"`
}

// Send handles POST /api/chat/:projectId.
func (c *Chat) Send(ctx *gin.Context) {
	uid, err := webctx.UserID(ctx)
	if err != nil {
		webctx.AbortErr(ctx, http.StatusUnauthorized, "authentication required")
		return
	}

	pid, err := primitive.ObjectIDFromHex(ctx.Param("projectId"))
	if err != nil {
		webctx.AbortErr(ctx, http.StatusNotFound, projectModel.ErrProjectNotFound.Error())
		return
	}

	var req sendRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		webctx.AbortErr(ctx, http.StatusBadRequest, "message is required")
		return
	}

	result, err := c.svc.Send(ctx.Request.Context(), uid, pid, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, projectModel.ErrProjectNotFound):
			webctx.AbortErr(ctx, http.StatusNotFound, projectModel.ErrProjectNotFound.Error())
		case errors.Is(err, chatSvc.ErrUpstream):
			webctx.AbortErr(ctx, http.StatusBadGateway, err.Error())
		case validate.IsError(err):
			webctx.AbortErr(ctx, http.StatusBadRequest, err.Error())
		default:
			c.logger.Error("send chat", zap.Error(err))
			msg := "internal server error"
			if c.debug {
				msg = err.Error()
			}
			webctx.AbortErr(ctx, http.StatusInternalServerError, msg)
		}
		return
	}

	ctx.JSON(http.StatusOK, result)
}
