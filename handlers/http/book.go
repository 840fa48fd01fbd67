package httpHandler

import (
	"fmt"
	"net/http"
	"time"

	"user-server/entities"
	"user-server/usecases"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

type BookHandler struct {
	useCase *usecases.UserUseCase
	log     *logrus.Logger
}

func NewBookHandler(useCase *usecases.UserUseCase, log *logrus.Logger) *BookHandler {
	return &BookHandler{
		useCase: useCase,
		log:     log,
	}
}

type bookRequest struct {
	Title           string  `json:"title" binding:"required,max=255"`
	PublicationDate string  `json:"publication_date" binding:"required,datetime=2006-01-02"`
	Genre           string  `json:"genre" binding:"required,max=255"`
	ISBN            string  `json:"isbn" binding:"required,max=13"`
	AverageRating   float64 `json:"average_rating" binding:"gte=0,lte=5"`
	NumRatings      int     `json:"num_ratings" binding:"gte=0"`
	Description     string  `json:"description"`
	ImageURL        string  `json:"image_url" binding:"omitempty,url,max=255"`
}

// GetUserBooks handles GET /users/:id/books
func (h *BookHandler) GetUserBooks(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}

	books, err := h.useCase.ListBooks(c.Request.Context(), userID)
	if err != nil {
		respondUseCaseError(c, h.log, err, "User not found")
		return
	}

	respondOK(c, http.StatusOK, books)
}

// CreateUserBook handles POST /users/:id/books
func (h *BookHandler) CreateUserBook(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	// already checked by the datetime rule
	published, _ := time.Parse(dateLayout, req.PublicationDate)

	book := &entities.Book{
		Title:           req.Title,
		PublicationDate: published,
		Genre:           req.Genre,
		ISBN:            req.ISBN,
		AverageRating:   req.AverageRating,
		NumRatings:      req.NumRatings,
		Description:     req.Description,
		ImageURL:        req.ImageURL,
	}
	if err := h.useCase.CreateBook(c.Request.Context(), userID, book); err != nil {
		respondUseCaseError(c, h.log, err, "User not found")
		return
	}

	respondOK(c, http.StatusCreated, book)
}

// DeleteBook handles DELETE /books/:id
func (h *BookHandler) DeleteBook(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.useCase.DeleteBook(c.Request.Context(), id); err != nil {
		respondUseCaseError(c, h.log, err, "Book not found")
		return
	}

	respondOK(c, http.StatusOK, fmt.Sprintf("Book %d deleted", id))
}
