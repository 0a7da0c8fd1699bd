package api

import (
	"net/http"

	"auditorium/internal/service"
	v1 "auditorium/pkg/api/v1"

	"github.com/gin-gonic/gin"
)

type ConferenceHandler struct {
	catalog *service.Catalog
}

func NewConferenceHandler(catalog *service.Catalog) *ConferenceHandler {
	return &ConferenceHandler{catalog: catalog}
}

func (h *ConferenceHandler) Create(c *gin.Context) {
	var body v1.CreateConferenceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	id, err := h.catalog.CreateConference(operator(c), body)
	if err != nil {
		respondError(c, err)
		return
	}
	var res v1.CreateConferenceResponse
	res.Conference.ID = id
	c.JSON(http.StatusCreated, res)
}

func (h *ConferenceHandler) List(c *gin.Context) {
	var q v1.ConferenceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	if q.Status != "" && !q.Status.Valid() {
		respondBindError(c, nil)
		return
	}
	if q.Order != "" && q.Order != "asc" && q.Order != "desc" {
		respondBindError(c, nil)
		return
	}

	items, page := h.catalog.ListConferences(q)
	c.JSON(http.StatusOK, v1.GetConferencesResponse{Conferences: items, Pagination: page})
}

func (h *ConferenceHandler) Get(c *gin.Context) {
	conf, err := h.catalog.GetConference(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v1.GetConferenceResponse{Conference: conf})
}

func (h *ConferenceHandler) Update(c *gin.Context) {
	var body v1.UpdateConferenceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.catalog.UpdateConference(operator(c), c.Param("id"), body); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ConferenceHandler) Delete(c *gin.Context) {
	if err := h.catalog.DeleteConference(operator(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ConferenceHandler) UpdateStatus(c *gin.Context) {
	var body v1.UpdateConferenceStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	if !body.Status.Valid() {
		respondBindError(c, nil)
		return
	}
	if err := h.catalog.UpdateStatus(operator(c), c.Param("id"), body.Status); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
