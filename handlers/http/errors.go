package httpHandler

import (
	"net/http"

	"user-server/repositories"
	"user-server/usecases"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// conflictMessage names the field a uniqueness violation hit. Anything it
// does not recognise falls back to the database's own detail.
func conflictMessage(ie *repositories.IntegrityError) string {
	if ie.Kind == repositories.KindUnique {
		switch ie.Field {
		case "email":
			return "Email already exists"
		case "username":
			return "Username already exists"
		}
	}
	return ie.Error()
}

// respondUseCaseError maps use case failures onto status codes. notFound is
// the detail used when the target does not exist; operations that cannot
// miss pass an empty string.
func respondUseCaseError(c *gin.Context, log *logrus.Logger, err error, notFound string) {
	if notFound == "" {
		notFound = "Not found"
	}

	var verr *usecases.ValidationError
	var ie *repositories.IntegrityError

	switch {
	case errors.As(err, &verr):
		respondError(c, http.StatusBadRequest, verr.Error(), fieldItems(verr.Fields)...)
	case errors.Is(err, repositories.ErrNotFound):
		respondError(c, http.StatusNotFound, notFound)
	case errors.As(err, &ie):
		msg := conflictMessage(ie)
		respondError(c, http.StatusBadRequest, msg, ErrorItem{Field: ie.Field, Message: msg})
	default:
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("unhandled storage error")
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}
