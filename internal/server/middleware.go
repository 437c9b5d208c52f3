package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/coldread-dev/coldread/internal/auth"
	"github.com/coldread-dev/coldread/internal/metrics"
	"github.com/coldread-dev/coldread/internal/models"
)

const (
	bearerPrefix = "Bearer "
	userKey      = "user"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrUserNotFound      = errors.New("user not found")
)

// currentUser returns the user row loaded by JWTAuthMiddleware
func currentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(userKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

func respondUnauthorized(c *gin.Context, log zerolog.Logger, err error, message string) {
	log.Debug().Err(err).Msg(message)
	c.Header("WWW-Authenticate", "Bearer")
	respondDetail(c, http.StatusUnauthorized, message)
	c.Abort()
}

// JWTAuthMiddleware validates bearer tokens and loads the user. A token whose
// user no longer exists is rejected like an invalid one.
func JWTAuthMiddleware(db *gorm.DB, signer *auth.Signer, m *metrics.Metrics, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			message := "Not authenticated"
			switch err {
			case ErrInvalidAuthFormat:
				message = "Invalid authorization header format"
			case ErrEmptyToken:
				message = "Empty token"
			}
			respondUnauthorized(c, log, err, message)
			return
		}

		claims, err := signer.ValidateToken(token)
		if err != nil {
			m.AuthEvent(metrics.EventTokenRejected, false)
			respondUnauthorized(c, log, err, "Could not validate credentials")
			return
		}

		var user models.User
		if err := models.FindByID(db, claims.UserID, &user); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to load user")
				respondDetail(c, http.StatusInternalServerError, "Internal server error")
				c.Abort()
				return
			}
			m.AuthEvent(metrics.EventTokenRejected, false)
			respondUnauthorized(c, log, ErrUserNotFound, "User not found")
			return
		}

		c.Set(userKey, &user)

		c.Next()
	}
}
