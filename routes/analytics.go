package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"feedback-service-server/models"
	"feedback-service-server/services"
)

type analyticsHandler struct {
	service *services.SubmissionService
	now     func() time.Time
}

// RegisterAnalyticsRoutes registers the dashboard aggregate endpoints
func RegisterAnalyticsRoutes(router *gin.RouterGroup, deps Dependencies) {
	h := &analyticsHandler{service: deps.Submissions, now: deps.Now}
	router.GET("/stats", h.getStats)
	router.GET("/analytics", h.getAnalytics)
}

func (h *analyticsHandler) getStats(c *gin.Context) {
	submissions, err := h.service.List(models.SubmissionFilter{})
	if err != nil {
		respondError(c, err, "", "Error calculating stats")
		return
	}
	c.JSON(http.StatusOK, services.ComputeStats(submissions))
}

func (h *analyticsHandler) getAnalytics(c *gin.Context) {
	query, err := analyticsQueryFrom(c)
	if err != nil {
		respondError(c, err, "", "Error calculating analytics")
		return
	}

	submissions, err := h.service.List(models.SubmissionFilter{})
	if err != nil {
		respondError(c, err, "", "Error calculating analytics")
		return
	}
	c.JSON(http.StatusOK, services.ComputeAnalytics(submissions, query, h.now()))
}

func analyticsQueryFrom(c *gin.Context) (services.AnalyticsQuery, error) {
	query := services.AnalyticsQuery{DateRange: c.DefaultQuery("date_range", services.RangeAll)}

	if raw := c.Query("rating"); raw != "" {
		rating, err := strconv.Atoi(raw)
		if err != nil {
			return query, errors.Wrapf(services.ErrValidation, "invalid rating %q", raw)
		}
		query.Rating = rating
	}
	if raw := c.Query("start_date"); raw != "" {
		start, err := services.ParseAnalyticsDate(raw, false)
		if err != nil {
			return query, err
		}
		query.Start = &start
	}
	if raw := c.Query("end_date"); raw != "" {
		end, err := services.ParseAnalyticsDate(raw, true)
		if err != nil {
			return query, err
		}
		query.End = &end
	}
	return query, nil
}
