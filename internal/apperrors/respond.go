package apperrors

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Respond writes err as a JSON error response. AppError values map to their
// taxonomy status; anything else becomes a 500 with a generic message so
// internal details never reach clients. Server-side failures are logged here
// because this is the last point where the original error is still in hand.
func Respond(c *gin.Context, err error) {
	appErr, ok := As(err)
	if !ok {
		appErr = Internal("unknown", err)
	}

	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"domain", appErr.Domain,
			"code", appErr.Code,
			"path", c.FullPath(),
			"error", appErr.Error(),
		)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(status, gin.H{"error": appErr.Message})
}
