package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/store/catalog"
)

// HeaderUserID carries the caller identity.
const HeaderUserID = "X-User-ID"

const callerKey = "dittodrive.caller"

func (a *RESTAdapter) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		logger.Error("panic serving %s %s: %v", c.Request.Method, c.Request.URL.Path, rec)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}

// observe logs and records every request once the handler chain is done.
func (a *RESTAdapter) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		a.metrics.RecordRequest(c.Request.Method, route, status, elapsed)
		logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, elapsed)
	}
}

// Limiter key namespaces. Client addresses are only charged for requests
// that fail identification, so callers behind one address do not share a
// budget while made-up identities cannot dodge throttling.
const (
	addressKeyPrefix = "addr:"
	userKeyPrefix    = "user:"
)

func tooManyRequests(c *gin.Context) {
	c.Header("Retry-After", "1")
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
}

// throttleAddress rejects clients whose address has used up its budget on
// failed identifications. It runs before the user directory is consulted.
func (a *RESTAdapter) throttleAddress() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.limiter.Blocked(addressKeyPrefix + c.ClientIP()) {
			a.metrics.RecordRateLimited()
			tooManyRequests(c)
			return
		}
		c.Next()
	}
}

// identify resolves X-User-ID against the user directory.
func (a *RESTAdapter) identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderUserID)
		if id == "" {
			a.unauthorized(c, "missing "+HeaderUserID+" header")
			return
		}

		user, err := a.drive.GetUser(c.Request.Context(), id)
		if err != nil {
			if catalog.IsNotFound(err) {
				a.unauthorized(c, "unknown user")
				return
			}
			writeError(c, err)
			return
		}

		c.Set(callerKey, user)
		c.Next()
	}
}

// unauthorized answers 401 and charges the client address.
func (a *RESTAdapter) unauthorized(c *gin.Context, message string) {
	if !a.limiter.Allow(addressKeyPrefix + c.ClientIP()) {
		a.metrics.RecordRateLimited()
		tooManyRequests(c)
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}

// rateLimit throttles identified callers, one bucket per user.
func (a *RESTAdapter) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.limiter.Allow(userKeyPrefix + caller(c).ID) {
			a.metrics.RecordRateLimited()
			tooManyRequests(c)
			return
		}
		c.Next()
	}
}

func caller(c *gin.Context) *catalog.User {
	return c.MustGet(callerKey).(*catalog.User)
}
