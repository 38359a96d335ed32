package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/clearhub-ng/clearance-api/internal/middleware"
	"github.com/clearhub-ng/clearance-api/internal/models"
	"github.com/clearhub-ng/clearance-api/internal/policy"
)

func currentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	value, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}

func currentActor(c *gin.Context) (policy.Actor, bool) {
	value, ok := c.Get(middleware.ContextActorKey)
	if !ok {
		return policy.Actor{}, false
	}
	actor, ok := value.(policy.Actor)
	return actor, ok
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func queryBool(c *gin.Context, key string) bool {
	value, err := strconv.ParseBool(c.Query(key))
	return err == nil && value
}
