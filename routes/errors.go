package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"feedback-service-server/database"
	"feedback-service-server/services"
)

func writeError(c *gin.Context, status int, short, message string) {
	c.JSON(status, gin.H{
		"error":   short,
		"message": message,
		"detail":  message,
	})
}

func invalidRequest(c *gin.Context, err error) {
	writeError(c, http.StatusBadRequest, "Invalid request data", err.Error())
}

// respondError maps the service error taxonomy onto HTTP statuses.
// notFound and failed are the client messages for 404 and 500.
func respondError(c *gin.Context, err error, notFound, failed string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		writeError(c, http.StatusBadRequest, "Validation failed", err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(c, http.StatusUnauthorized, "Invalid credentials", "Invalid email or password")
	case errors.Is(err, database.ErrNotFound):
		writeError(c, http.StatusNotFound, "Not found", notFound)
	default:
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("❌ " + failed)
		writeError(c, http.StatusInternalServerError, "Internal server error", failed)
	}
}
