package httpHandler

import (
	"net/http"
	"strconv"
	"strings"

	"user-server/usecases"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// report binding failures by json field name
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(usecases.JSONFieldName)
	}
}

type ErrorItem struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Envelope wraps every response body. Failures set Status to false, list the
// problems in Errors and summarize them in Detail.
type Envelope struct {
	Status bool        `json:"status"`
	Data   interface{} `json:"data"`
	Errors []ErrorItem `json:"errors"`
	Detail string      `json:"detail,omitempty"`
}

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{Status: true, Data: data})
}

func respondError(c *gin.Context, status int, detail string, items ...ErrorItem) {
	if len(items) == 0 {
		items = []ErrorItem{{Message: detail}}
	}
	c.AbortWithStatusJSON(status, Envelope{Status: false, Errors: items, Detail: detail})
}

func fieldItems(fields []usecases.FieldError) []ErrorItem {
	items := make([]ErrorItem, 0, len(fields))
	for _, f := range fields {
		items = append(items, ErrorItem{Field: f.Field, Message: f.Message})
	}
	return items
}

// respondBindError reports a request body that failed to decode or validate.
func respondBindError(c *gin.Context, err error) {
	fields := usecases.DescribeValidation(err)
	if len(fields) == 0 {
		respondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	verr := &usecases.ValidationError{Fields: fields}
	respondError(c, http.StatusBadRequest, verr.Error(), fieldItems(fields)...)
}

// parseID reads a positive integer path parameter. It answers 400 itself
// when the value is malformed.
func parseID(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid "+name+": "+raw, ErrorItem{Field: name, Message: "must be a positive integer"})
		return 0, false
	}
	return uint(id), true
}
