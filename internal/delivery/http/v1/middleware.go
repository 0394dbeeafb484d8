package v1

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/adanyl0v/go-todo-lists/internal/models"
	"github.com/adanyl0v/go-todo-lists/internal/services"
)

const (
	userIDCtxKey    = "user_id"
	sessionIDCtxKey = "session_id"
	actorCtxKey     = "actor"

	timezoneHeader = "X-Timezone"
)

func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	const authHeader = "Authorization"
	header := c.GetHeader(authHeader)
	if header == "" {
		h.logger.Error().Msg("authorization header required")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	const bearerPrefix = "Bearer"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != bearerPrefix {
		h.logger.Error().Msg("invalid authorization header")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	claims, err := h.auth.ParseJWTToken(parts[1])
	if err != nil {
		if !errors.Is(err, jwt.ErrTokenExpired) {
			h.logger.Error().
				Err(err).
				Msg("failed to parse token")
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		result, ok := h.refresh(c)
		if !ok {
			return
		}

		claims, err = h.auth.ParseJWTToken(result.AccessToken)
		if err != nil {
			h.logger.Error().
				Err(err).
				Msg("failed to parse fresh token")
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
	}

	session, err := h.sessions.GetSessionByID(c, claims.Subject)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("session_id", claims.Subject).
			Msg("failed to fetch session")
		abort(c, newServiceError(err))
		return
	}

	browserFingerprint, err := generateFingerprint(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate fingerprint")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	if browserFingerprint != session.Fingerprint {
		h.logger.Error().
			Str("session_id", session.ID).
			Msg("fingerprint mismatch")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetUser(c, session.UserID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", session.UserID).
			Msg("failed to fetch session user")
		abort(c, newServiceError(err))
		return
	}

	c.Set(userIDCtxKey, session.UserID)
	c.Set(sessionIDCtxKey, session.ID)
	c.Set(actorCtxKey, services.Actor{
		UserID:   user.ID,
		Name:     user.Name,
		Location: h.resolveLocation(c, user),
	})
	c.Next()
}

// resolveLocation prefers the client's X-Timezone header over the stored
// profile timezone. Unknown zones fall back to UTC.
func (h *handlerImpl) resolveLocation(c *gin.Context, user *models.User) *time.Location {
	for _, name := range []string{c.GetHeader(timezoneHeader), user.Timezone} {
		if name == "" {
			continue
		}
		loc, err := time.LoadLocation(name)
		if err == nil {
			return loc
		}
		h.logger.Warn().
			Err(err).
			Str("timezone", name).
			Msg("unknown timezone")
	}
	return time.UTC
}

func actorFromContext(c *gin.Context) (services.Actor, bool) {
	value, exists := c.Get(actorCtxKey)
	if !exists {
		return services.Actor{}, false
	}
	actor, ok := value.(services.Actor)
	return actor, ok
}

// mustActor aborts the request when the middleware did not run.
func (h *handlerImpl) mustActor(c *gin.Context) (services.Actor, bool) {
	actor, ok := actorFromContext(c)
	if !ok {
		h.logger.Error().Msg("no actor found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
	}
	return actor, ok
}
