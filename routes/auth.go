package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"feedback-service-server/middleware"
	"feedback-service-server/models"
	"feedback-service-server/services"
)

type authHandler struct {
	auth *services.AuthService
}

// RegisterAuthRoutes registers authentication routes
func RegisterAuthRoutes(router *gin.RouterGroup, auth *services.AuthService) {
	if auth == nil {
		return
	}
	h := &authHandler{auth: auth}
	router.POST("/register", h.register)
	router.POST("/login", h.login)
	router.GET("/me", middleware.AuthMiddleware(auth), h.me)
}

func (h *authHandler) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	resp, err := h.auth.Register(req)
	if err != nil {
		respondError(c, err, "", "Failed to create user")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *authHandler) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	resp, err := h.auth.Login(req)
	if err != nil {
		respondError(c, err, "", "Failed to sign in")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// me returns the public profile of the token holder
func (h *authHandler) me(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authorization required", "User not authenticated")
		return
	}

	user, err := h.auth.Me(principal)
	if err != nil {
		respondError(c, err, "User not found", "Failed to load user")
		return
	}
	c.JSON(http.StatusOK, user)
}
