package api

import (
	"net/http"

	"auditorium/internal/service"
	v1 "auditorium/pkg/api/v1"

	"github.com/gin-gonic/gin"
)

type FeedbackHandler struct {
	catalog *service.Catalog
}

func NewFeedbackHandler(catalog *service.Catalog) *FeedbackHandler {
	return &FeedbackHandler{catalog: catalog}
}

func (h *FeedbackHandler) Create(c *gin.Context) {
	var body v1.CreateFeedbackRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	id, err := h.catalog.CreateFeedback(operator(c), body)
	if err != nil {
		respondError(c, err)
		return
	}
	var res v1.CreateFeedbackResponse
	res.Feedback.ID = id
	c.JSON(http.StatusCreated, res)
}

func (h *FeedbackHandler) ListByConference(c *gin.Context) {
	var page v1.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		respondBindError(c, err)
		return
	}
	items, p, err := h.catalog.Feedbacks(c.Param("id"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v1.GetFeedbacksResponse{Feedbacks: items, Pagination: p})
}

func (h *FeedbackHandler) Delete(c *gin.Context) {
	if err := h.catalog.DeleteFeedback(operator(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
