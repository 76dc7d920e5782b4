package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"smartsewing/internal/core/apperror"
	"smartsewing/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}
			status := appErr.HTTPStatus
			if status == 0 {
				status = http.StatusInternalServerError
			}
			respond(c, err, status, gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			})
			return
		}

		logger.Error(c.Request.Context(), "unhandled error",
			"error", err,
		)
		respond(c, err, http.StatusInternalServerError, gin.H{
			"code":    apperror.CodeInternal,
			"message": "Internal server error",
			"details": map[string]any{
				"request_id": c.GetString("request_id"),
			},
		})
	}
}

// respond writes body and settles the request's idempotency key. Final
// rejections are stored so a retry replays the same answer; retryable ones
// release the key so the retry runs again.
func respond(c *gin.Context, err error, status int, body gin.H) {
	if key, store, ok := IdempotencyFrom(c); ok {
		ctx := c.Request.Context()
		if apperror.Retryable(err) {
			if err := store.ReleaseKey(ctx, key); err != nil {
				logger.Warn(ctx, "idempotency release failed", "key", key, "error", err)
			}
		} else if raw, err := json.Marshal(body); err == nil {
			if err := store.FailKey(ctx, key, status, "application/json", raw); err != nil {
				logger.Warn(ctx, "idempotency fail failed", "key", key, "error", err)
			}
		}
	}
	c.JSON(status, body)
}
