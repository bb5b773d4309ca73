package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/foodnetwork-backend/internal/config"
	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
	"github.com/princeprakhar/foodnetwork-backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

// ModeratorChecker reads a user's current privilege from storage.
type ModeratorChecker interface {
	IsModerator(ctx context.Context, userID uint) (bool, error)
}

func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.SendUnauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			utils.SendUnauthorized(c, "Bearer token required")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString, cfg.JWTSecret, utils.AccessToken)
		if err != nil {
			utils.SendUnauthorized(c, "Invalid token")
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid bearer token is present and
// lets anonymous requests through otherwise. A request for hidden content
// (?include_hidden=true) is granted only when the caller is a moderator right
// now, not merely when the token says so.
func OptionalAuth(cfg *config.Config, staff ModeratorChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if authHeader != "" && tokenString != authHeader {
			if claims, err := utils.ParseToken(tokenString, cfg.JWTSecret, utils.AccessToken); err == nil {
				setClaims(c, claims)
			}
		}
		if c.Query("include_hidden") == "true" {
			c.Set("include_hidden", canSeeHidden(c, staff))
		}
		c.Next()
	}
}

func canSeeHidden(c *gin.Context, staff ModeratorChecker) bool {
	role := c.GetString("user_role")
	if role != models.RoleModerator && role != models.RoleAdmin {
		return false
	}
	ok, err := staff.IsModerator(c.Request.Context(), c.GetUint("user_id"))
	if err != nil {
		logger.WithFields(logrus.Fields{"user_id": c.GetUint("user_id")}).Errorf("check moderator: %v", err)
		return false
	}
	return ok
}

func setClaims(c *gin.Context, claims *utils.Claims) {
	c.Set("user_id", claims.UserID)
	c.Set("user_email", claims.Email)
	c.Set("user_role", claims.Role)
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("user_role")
		if role != models.RoleAdmin {
			utils.SendForbidden(c, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// StaffOnly admits moderators and admins. Moderation services re-check the
// role against the database.
func StaffOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("user_role")
		if role != models.RoleModerator && role != models.RoleAdmin {
			utils.SendForbidden(c, "Moderator access required")
			c.Abort()
			return
		}
		c.Next()
	}
}
