package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/store/catalog"
)

var errPermissionDenied = catalog.NewError(catalog.ErrPermissionDenied, "permission denied")

// statusFor maps domain error codes to HTTP status codes.
func statusFor(err error) int {
	code, ok := catalog.CodeOf(err)
	if !ok {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	}

	switch code {
	case catalog.ErrValidation:
		return http.StatusBadRequest
	case catalog.ErrPermissionDenied:
		return http.StatusForbidden
	case catalog.ErrNotFound:
		return http.StatusNotFound
	case catalog.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError aborts the request with {"error": message}. Infrastructure
// errors are logged and hidden from the client.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()

	if _, ok := catalog.CodeOf(err); !ok {
		logger.Error("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		message = http.StatusText(status)
	} else if status == http.StatusInternalServerError {
		logger.Error("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
