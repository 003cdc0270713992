package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/config"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(config.LevelFromEnv())
}

// respondError writes err as a models.APIError. Service errors keep their
// message; anything else is logged and hidden behind a 500.
func respondError(c *gin.Context, err error) {
	svcErr, ok := services.AsError(err)
	if !ok {
		log.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"error":  err.Error(),
		}).Error("Unexpected error while handling request")
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			models.NewAPIError(models.ErrInternalServer, "Internal server error"))
		return
	}

	status, code := statusFor(svcErr.Kind)
	c.AbortWithStatusJSON(status, models.NewAPIError(code, svcErr.Message).WithFieldErrors(svcErr.Fields))
}

func statusFor(kind services.ErrorKind) (int, string) {
	switch kind {
	case services.KindNotFound:
		return http.StatusNotFound, models.ErrNotFound
	case services.KindValidation:
		return http.StatusBadRequest, models.ErrValidationFailed
	case services.KindConflict:
		return http.StatusConflict, models.ErrConflict
	case services.KindForbidden:
		return http.StatusForbidden, models.ErrForbidden
	default:
		return http.StatusInternalServerError, models.ErrInternalServer
	}
}
