package api

import (
	"net/http"

	"auditorium/internal/service"
	v1 "auditorium/pkg/api/v1"

	"github.com/gin-gonic/gin"
)

type RegistrationHandler struct {
	catalog *service.Catalog
	users   *service.Directory
}

func NewRegistrationHandler(catalog *service.Catalog, users *service.Directory) *RegistrationHandler {
	return &RegistrationHandler{catalog: catalog, users: users}
}

func (h *RegistrationHandler) Register(c *gin.Context) {
	var body v1.RegisterConferenceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.catalog.Register(operator(c), body.ConferenceID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "registered"})
}

func (h *RegistrationHandler) Users(c *gin.Context) {
	var page v1.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		respondBindError(c, err)
		return
	}
	users, p, err := h.catalog.RegisteredUsers(operator(c), c.Param("id"), h.users, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v1.GetRegisteredUsersResponse{Users: users, Pagination: p})
}

func (h *RegistrationHandler) Conferences(c *gin.Context) {
	var q v1.RegisteredConferencesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	confs, p, err := h.catalog.RegisteredConferences(operator(c), c.Param("id"), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v1.GetRegisteredConferencesResponse{Conferences: confs, Pagination: p})
}
