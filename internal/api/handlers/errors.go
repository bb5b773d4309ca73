package handlers

import (
	"errors"
	"net/http"
	"strconv"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/foodnetwork-backend/internal/services"
	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
	"github.com/princeprakhar/foodnetwork-backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

// respondError maps a service error onto the response envelope.
func respondError(c *gin.Context, message string, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.SendFieldErrors(c, verr.Fields)
	case errors.Is(err, services.ErrNotFound):
		utils.SendError(c, http.StatusNotFound, message, err)
	case errors.Is(err, services.ErrForbidden):
		utils.SendError(c, http.StatusForbidden, message, err)
	case errors.Is(err, services.ErrDuplicate), errors.Is(err, services.ErrInvalidTransition):
		utils.SendError(c, http.StatusConflict, message, err)
	case errors.Is(err, services.ErrUnauthorized):
		utils.SendError(c, http.StatusUnauthorized, message, err)
	case errors.Is(err, services.ErrStorageDisabled):
		utils.SendError(c, http.StatusServiceUnavailable, message, err)
	default:
		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Errorf("%s: %v", message, err)
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		utils.SendInternalError(c, message, err)
	}
}

// paramID parses a numeric path parameter, answering 400 when malformed.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		utils.SendValidationError(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid request data", err)
		return false
	}
	return true
}

// visibilityFor honours ?include_hidden=true once OptionalAuth has confirmed
// the caller is a moderator.
func visibilityFor(c *gin.Context) services.Visibility {
	if c.Query("include_hidden") == "true" && c.GetBool("include_hidden") {
		return services.IncludeHidden
	}
	return services.OnlyVisible
}

func bindPage(c *gin.Context) services.Page {
	var page services.Page
	_ = c.ShouldBindQuery(&page)
	return page
}
