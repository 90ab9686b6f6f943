package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"feedback-service-server/middleware"
	"feedback-service-server/models"
	"feedback-service-server/services"
	"feedback-service-server/types"
)

const submissionNotFound = "Submission not found"

type submissionHandler struct {
	service *services.SubmissionService
}

// RegisterSubmissionRoutes registers the public submit endpoint and the admin
// listing endpoints. admin guards everything except submit-review.
func RegisterSubmissionRoutes(router *gin.RouterGroup, deps Dependencies, admin []gin.HandlerFunc) {
	h := &submissionHandler{service: deps.Submissions}

	if deps.Auth != nil {
		router.POST("/submit-review", middleware.OptionalAuthMiddleware(deps.Auth), h.submitReview)
	} else {
		router.POST("/submit-review", h.submitReview)
	}

	adminGroup := router.Group("", admin...)
	adminGroup.GET("/submissions", h.listSubmissions)
	adminGroup.GET("/submissions/:id", h.getSubmission)
	adminGroup.GET("/submission/:id", h.getSubmission)
	adminGroup.PATCH("/submissions/:id", h.updateSubmission)
	adminGroup.POST("/submissions/:id/reprocess", h.reprocessSubmission)
}

// submitReview stores a review together with its generated AI pack
func (h *submissionHandler) submitReview(c *gin.Context) {
	var req models.SubmissionCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	var author *types.Principal
	if principal, ok := middleware.GetPrincipal(c); ok {
		author = &principal
	}

	submission, err := h.service.Submit(c.Request.Context(), req, author)
	if err != nil {
		respondError(c, err, submissionNotFound, "Failed to save submission")
		return
	}
	c.JSON(http.StatusOK, submission)
}

func (h *submissionHandler) listSubmissions(c *gin.Context) {
	var filter models.SubmissionFilter
	if raw := c.Query("rating"); raw != "" {
		rating, err := strconv.Atoi(raw)
		if err != nil || rating < 1 || rating > 5 {
			writeError(c, http.StatusBadRequest, "Invalid rating", "rating must be an integer between 1 and 5")
			return
		}
		filter.Rating = rating
	}
	filter.DatePrefix = c.Query("date")

	submissions, err := h.service.List(filter)
	if err != nil {
		respondError(c, err, submissionNotFound, "Error loading submissions")
		return
	}
	log.WithFields(log.Fields{"count": len(submissions), "rating": filter.Rating, "date": filter.DatePrefix}).Debug("Listed submissions")
	c.JSON(http.StatusOK, submissions)
}

func (h *submissionHandler) getSubmission(c *gin.Context) {
	submission, err := h.service.Get(c.Param("id"))
	if err != nil {
		respondError(c, err, submissionNotFound, "Error fetching submission")
		return
	}
	c.JSON(http.StatusOK, submission)
}

// updateSubmission applies a partial correction to the AI fields or status
func (h *submissionHandler) updateSubmission(c *gin.Context) {
	var patch models.SubmissionUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		invalidRequest(c, err)
		return
	}

	updated, err := h.service.Update(c.Param("id"), patch)
	if err != nil {
		respondError(c, err, submissionNotFound, "Failed to update submission")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *submissionHandler) reprocessSubmission(c *gin.Context) {
	updated, err := h.service.Reprocess(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, submissionNotFound, "Failed to reprocess submission")
		return
	}
	c.JSON(http.StatusOK, updated)
}
