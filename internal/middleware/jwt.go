package middleware

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clearhub-ng/clearance-api/internal/models"
	"github.com/clearhub-ng/clearance-api/internal/policy"
	"github.com/clearhub-ng/clearance-api/internal/service"
	appErrors "github.com/clearhub-ng/clearance-api/pkg/errors"
	"github.com/clearhub-ng/clearance-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// ContextActorKey is the gin context key storing the resolved policy actor.
const ContextActorKey = "currentActor"

type profileResolver interface {
	FindOfficerProfile(ctx context.Context, userID string) (*models.OfficerProfile, error)
}

// JWT protects routes by requiring a valid access token. For officer users
// the assigned-office profile is resolved once here so downstream access
// checks never hit the database again.
func JWT(authService *service.AuthService, profiles profileResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		actor := policy.Actor{Claims: claims}
		if claims.Role == models.RoleOfficer && profiles != nil {
			officer, err := profiles.FindOfficerProfile(c.Request.Context(), claims.UserID)
			if err != nil {
				if !errors.Is(err, sql.ErrNoRows) {
					response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve officer profile"))
					c.Abort()
					return
				}
			} else {
				actor.Officer = officer
			}
		}

		c.Set(ContextUserKey, claims)
		c.Set(ContextActorKey, actor)
		c.Next()
	}
}
