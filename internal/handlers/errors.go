package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/locals/internal/helpers"
	"github.com/joshua-takyi/locals/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// respondError writes the status and body for err. Unexpected errors are
// attached to the context for ErrorHandler to log and answered generically.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, models.ValidationErrorResponse(err))
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
	case errors.Is(err, models.ErrAuth):
		c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid email or password"))
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse(err.Error()))
	case errors.Is(err, models.ErrUpload):
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, models.ErrorResponse("image upload failed"))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("internal server error"))
	}
}

// paramObjectID parses the path parameter name, answering 400 when it is not
// a valid id.
func paramObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(helpers.StringTrim(c.Param(name)))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ValidationErrorResponse(models.NewFieldError(name, "is not a valid id")))
		return primitive.NilObjectID, false
	}
	return id, true
}
