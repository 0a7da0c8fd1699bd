package api

import (
	"context"
	"net/http"

	"auditorium/internal/service"
	v1 "auditorium/pkg/api/v1"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users   *service.Directory
	catalog *service.Catalog
	revoke  func(ctx context.Context, userID string) error
}

// NewUserHandler wires user administration; revoke ends a deleted user's
// sessions.
func NewUserHandler(users *service.Directory, catalog *service.Catalog, revoke func(ctx context.Context, userID string) error) *UserHandler {
	return &UserHandler{users: users, catalog: catalog, revoke: revoke}
}

func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.users.Get(operator(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v1.GetUserResponse{User: u.View()})
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var body v1.UpdateUserProfileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	u, err := h.users.UpdateProfile(operator(c).UserID, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v1.GetUserResponse{User: u.View()})
}

func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.users.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v1.GetUserMinimalResponse{User: u.Minimal()})
}

func (h *UserHandler) Create(c *gin.Context) {
	var body v1.CreateUserRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	u, err := h.users.Create(body.Name, body.Email, body.Password, body.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	var res v1.CreateUserResponse
	res.User.ID = u.ID
	c.JSON(http.StatusCreated, res)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.users.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	h.catalog.ForgetUser(id)
	if err := h.revoke(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
