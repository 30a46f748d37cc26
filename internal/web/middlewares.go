package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/promptbox/internal/web/webctx"
	"github.com/Laisky/promptbox/library/jwt"
	"github.com/Laisky/promptbox/library/throttle"
)

// securityHeaders sets the baseline response headers on every request.
func securityHeaders(ctx *gin.Context) {
	ctx.Header("X-Content-Type-Options", "nosniff")
	ctx.Header("X-Frame-Options", "DENY")
	ctx.Header("Referrer-Policy", "no-referrer")
	ctx.Header("Cache-Control", "no-store")

	ctx.Next()
}

// allowCORS admits exactly one configured frontend origin.
func allowCORS(allowedOrigin string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")
		if origin != "" && origin == allowedOrigin {
			ctx.Header("Access-Control-Allow-Origin", origin)
			ctx.Header("Access-Control-Allow-Credentials", "true")
			ctx.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			ctx.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, Origin")
			ctx.Header("Access-Control-Max-Age", "86400")
			ctx.Header("Vary", "Origin")

			if ctx.Request.Method == http.MethodOptions {
				ctx.AbortWithStatus(http.StatusNoContent)
				return
			}
		} else if origin != "" && ctx.Request.Method == http.MethodOptions {
			// deny preflight from disallowed origins
			ctx.AbortWithStatus(http.StatusForbidden)
			return
		}

		ctx.Next()
	}
}

// rateLimit short-circuits clients that spent their per-window budget.
func rateLimit(limiter *throttle.KeyedThrottle) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !limiter.Allow(ctx.ClientIP()) {
			retryAfter := int(limiter.RetryAfter().Seconds())
			ctx.Header("Retry-After", strconv.Itoa(retryAfter))
			webctx.AbortErr(ctx, http.StatusTooManyRequests, "too many requests")
			return
		}

		ctx.Next()
	}
}

// bodyLimit caps the request body size before any handler reads it.
func bodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Body != nil {
			ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxBytes)
		}

		ctx.Next()
	}
}

// authenticate verifies the bearer token and attaches the caller's user id.
// Authentication failure is deliberately distinct from not-found.
func authenticate(issuer *jwt.JWT) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			webctx.AbortErr(ctx, http.StatusUnauthorized, "authentication required")
			return
		}

		uc, err := issuer.Verify(strings.TrimSpace(token))
		if err != nil {
			webctx.AbortErr(ctx, http.StatusUnauthorized, "authentication required")
			return
		}

		uid, err := primitive.ObjectIDFromHex(uc.Subject)
		if err != nil {
			webctx.AbortErr(ctx, http.StatusUnauthorized, "authentication required")
			return
		}

		webctx.SetUserID(ctx, uid)
		ctx.Next()
	}
}
