package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
)

const actorKey = "actor"

// Claims is the bearer token payload issued by the identity service.
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Auth validates an HS256 bearer token and stores the caller as an entity.Actor.
// With an empty secret every request is rejected.
func Auth(secret string) gin.HandlerFunc {
	key := []byte(secret)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
		if len(key) == 0 || !strings.HasPrefix(header, "Bearer ") || raw == "" {
			abortUnauthorized(c)
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return key, nil
		})
		if err != nil || !token.Valid || claims.UserID == "" {
			logrus.WithField("path", c.Request.URL.Path).WithError(err).Debug("Rejected bearer token")
			abortUnauthorized(c)
			return
		}

		role := entity.Role(claims.Role)
		if role == "" {
			role = entity.RoleUser
		}
		c.Set(actorKey, entity.Actor{UserID: claims.UserID, Role: role})
		c.Next()
	}
}

// RequireRole lets the request through only for the listed roles.
func RequireRole(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if ok {
			for _, role := range roles {
				if actor.Role == role {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   entity.ErrUnauthorized.Error(),
		})
	}
}

func ActorFromContext(c *gin.Context) (entity.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return entity.Actor{}, false
	}
	actor, ok := v.(entity.Actor)
	return actor, ok
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   "missing or invalid bearer token",
	})
}
