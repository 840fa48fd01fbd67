package httpHandler

import (
	"net/http"

	"user-server/entities"
	"user-server/usecases"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type UserHandler struct {
	useCase *usecases.UserUseCase
	log     *logrus.Logger
}

func NewUserHandler(useCase *usecases.UserUseCase, log *logrus.Logger) *UserHandler {
	return &UserHandler{
		useCase: useCase,
		log:     log,
	}
}

// userRequest is the body of POST /user and PUT /users/:id. Password is
// required on update too but only email and username are rewritten.
type userRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// GetAllUsers handles GET /users
func (h *UserHandler) GetAllUsers(c *gin.Context) {
	users, err := h.useCase.ListUsers(c.Request.Context())
	if err != nil {
		respondUseCaseError(c, h.log, err, "")
		return
	}

	views := make([]entities.UserView, 0, len(users))
	for i := range users {
		views = append(views, users[i].Public())
	}
	respondOK(c, http.StatusOK, views)
}

// CreateUser handles POST /user
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.useCase.CreateUser(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		respondUseCaseError(c, h.log, err, "")
		return
	}

	respondOK(c, http.StatusOK, user.Summary())
}

// GetUser handles GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user, err := h.useCase.GetUser(c.Request.Context(), id)
	if err != nil {
		respondUseCaseError(c, h.log, err, "User not found")
		return
	}

	respondOK(c, http.StatusOK, user.Public())
}

// UpdateUser handles PUT /users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.useCase.UpdateUser(c.Request.Context(), id, req.Email, req.Username)
	if err != nil {
		respondUseCaseError(c, h.log, err, "User not found")
		return
	}

	respondOK(c, http.StatusOK, user.Public())
}

// DeleteUser handles DELETE /users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	msg, err := h.useCase.DeleteUser(c.Request.Context(), id)
	if err != nil {
		respondUseCaseError(c, h.log, err, "User not found")
		return
	}

	respondOK(c, http.StatusOK, msg)
}
