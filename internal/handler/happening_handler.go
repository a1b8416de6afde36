package handler

import (
	"errors"
	"net/http"
	"time"

	"go-gin-happenings/internal/model"
	"go-gin-happenings/internal/queue"
	"go-gin-happenings/internal/service"
	apperrors "go-gin-happenings/pkg/app_errors"
	"go-gin-happenings/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type happeningURI struct {
	ID int `uri:"id" binding:"required,min=1"`
}

type factURI struct {
	FactID int `uri:"fact_id" binding:"required,min=1"`
}

type refreshQuery struct {
	Async bool `form:"async"`
}

type HappeningHandler struct {
	service      service.HappeningService
	counter      service.CounterService
	refreshQueue queue.SeatRefreshQueue
	apiToken     string
	now          func() time.Time
}

func NewHappeningHandler(
	service service.HappeningService,
	counter service.CounterService,
	refreshQueue queue.SeatRefreshQueue,
	apiToken string,
) *HappeningHandler {
	return &HappeningHandler{
		service:      service,
		counter:      counter,
		refreshQueue: refreshQueue,
		apiToken:     apiToken,
		now:          time.Now,
	}
}

func (h *HappeningHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("happenings/future", h.GetFuture)
		router.GET("happenings/history", h.GetHistory)
		router.GET("happenings/:id", h.GetHappening)
		router.GET("happenings/:id/seats", h.GetSeats)
		router.GET("facts/:fact_id/happenings", h.GetFactHappenings)
	}

	gated := r.Group("/api/v1", RequireToken(h.apiToken))
	{
		gated.POST("facts/:fact_id/happenings", h.CreateHappening)
		gated.PUT("happenings/:id", h.UpdateHappening)
		gated.DELETE("happenings/:id", h.DeleteHappening)
		gated.POST("happenings/:id/seats/refresh", h.RefreshSeats)
	}
}

func (h *HappeningHandler) CreateHappening(c *gin.Context) {
	var uri factURI
	if err := BindUri(c, &uri); err != nil {
		return
	}

	var req model.CreateHappeningRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	req.FactID = uri.FactID

	created, err := h.service.Create(c, req)
	if err != nil {
		h.handleError(c, err, "CreateHappening")
		return
	}

	c.JSON(http.StatusCreated, model.NewHappeningResponse(created, h.now()))
}

func (h *HappeningHandler) GetFuture(c *gin.Context) {
	happenings, err := h.service.Future(c)
	if err != nil {
		h.handleError(c, err, "GetFuture")
		return
	}

	c.JSON(http.StatusOK, h.toResponses(happenings))
}

func (h *HappeningHandler) GetHistory(c *gin.Context) {
	happenings, err := h.service.History(c)
	if err != nil {
		h.handleError(c, err, "GetHistory")
		return
	}

	c.JSON(http.StatusOK, h.toResponses(happenings))
}

func (h *HappeningHandler) GetFactHappenings(c *gin.Context) {
	var uri factURI
	if err := BindUri(c, &uri); err != nil {
		return
	}

	happenings, err := h.service.ListByFact(c, uri.FactID)
	if err != nil {
		h.handleError(c, err, "GetFactHappenings")
		return
	}

	c.JSON(http.StatusOK, h.toResponses(happenings))
}

func (h *HappeningHandler) GetHappening(c *gin.Context) {
	var uri happeningURI
	if err := BindUri(c, &uri); err != nil {
		return
	}

	happening, err := h.service.Get(c, uri.ID)
	if err != nil {
		h.handleError(c, err, "GetHappening")
		return
	}

	c.JSON(http.StatusOK, model.NewHappeningResponse(happening, h.now()))
}

func (h *HappeningHandler) GetSeats(c *gin.Context) {
	var uri happeningURI
	if err := BindUri(c, &uri); err != nil {
		return
	}

	availability, err := h.service.Availability(c, uri.ID)
	if err != nil {
		h.handleError(c, err, "GetSeats")
		return
	}

	c.JSON(http.StatusOK, availability)
}

func (h *HappeningHandler) UpdateHappening(c *gin.Context) {
	var uri happeningURI
	if err := BindUri(c, &uri); err != nil {
		return
	}

	var params model.UpdateHappeningParams
	if err := BindJson(c, &params); err != nil {
		return
	}

	updated, err := h.service.Update(c, uri.ID, params)
	if err != nil {
		h.handleError(c, err, "UpdateHappening")
		return
	}

	c.JSON(http.StatusOK, model.NewHappeningResponse(updated, h.now()))
}

func (h *HappeningHandler) DeleteHappening(c *gin.Context) {
	var uri happeningURI
	if err := BindUri(c, &uri); err != nil {
		return
	}

	if err := h.service.Delete(c, uri.ID); err != nil {
		h.handleError(c, err, "DeleteHappening")
		return
	}

	c.Status(http.StatusNoContent)
}

// RefreshSeats 重算座位數；async=true 時交給 worker 處理
func (h *HappeningHandler) RefreshSeats(c *gin.Context) {
	var uri happeningURI
	if err := BindUri(c, &uri); err != nil {
		return
	}

	var query refreshQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	happening, err := h.service.Get(c, uri.ID)
	if err != nil {
		h.handleError(c, err, "RefreshSeats")
		return
	}

	if query.Async {
		req := queue.NewSeatRefreshRequest(happening.ID)
		if err := h.refreshQueue.PublishRefresh(c, req); err != nil {
			h.handleError(c, err, "RefreshSeats")
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"request_id": req.RequestID,
		})
		return
	}

	refreshed, err := h.counter.RefreshSeatsCount(c, happening)
	if err != nil {
		h.handleError(c, err, "RefreshSeats")
		return
	}

	c.JSON(http.StatusOK, model.NewSeatAvailability(refreshed))
}

// Helper functions

func (h *HappeningHandler) toResponses(happenings []*model.Happening) []model.HappeningResponse {
	now := h.now()
	out := make([]model.HappeningResponse, 0, len(happenings))
	for _, happening := range happenings {
		out = append(out, model.NewHappeningResponse(happening, now))
	}
	return out
}

func (h *HappeningHandler) handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	var ve *apperrors.ValidationError
	switch {
	case errors.As(err, &ve):
		log.Warn("Validation failed")
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "Validation failed",
			"fields": ve.Fields,
		})
	case errors.Is(err, apperrors.ErrHappeningNotFound):
		log.Warn("Happening not found")
		RecordNotFound(c, "Happening not found")
	case errors.Is(err, apperrors.ErrFactNotFound):
		log.Warn("Fact not found")
		RecordNotFound(c, "Fact not found")
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid input",
		})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
