package routes

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"feedback-service-server/middleware"
	"feedback-service-server/services"
	ws "feedback-service-server/websocket"
)

// Dependencies are the services the HTTP layer is built on. Auth must be set
// when AdminRequired is.
type Dependencies struct {
	Submissions   *services.SubmissionService
	Auth          *services.AuthService
	Hub           *ws.Hub
	AdminRequired bool
	// Now anchors relative analytics windows. Defaults to time.Now.
	Now func() time.Time
}

var registerValidators sync.Once

// RegisterValidators adds the custom binding tags to gin's validator engine
func RegisterValidators() {
	registerValidators.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			log.Warn("⚠️ gin validator engine is not go-playground, custom tags unavailable")
			return
		}
		if err := v.RegisterValidation("notblank", notBlank); err != nil {
			log.WithError(err).Error("Failed to register notblank validator")
		}
	})
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// RegisterRoutes mounts every endpoint on router
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	RegisterValidators()
	if deps.Now == nil {
		deps.Now = time.Now
	}

	router.GET("/health", healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	admin := middleware.AdminChain(deps.Auth, deps.AdminRequired)

	RegisterAuthRoutes(api.Group("/auth"), deps.Auth)
	RegisterSubmissionRoutes(api, deps, admin)
	RegisterAnalyticsRoutes(api.Group("", admin...), deps)
	RegisterWebSocketRoutes(api.Group("/ws"), deps)
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Feedback Service Server is running",
		"time":    time.Now().UTC(),
	})
}
