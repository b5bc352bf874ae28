package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/locals/internal/models"
	"github.com/joshua-takyi/locals/internal/services"
)

// GetFavourites lists the user's favourite venue ids; with ?expand=true the
// venues themselves are included too.
func GetFavourites(f *services.FavouriteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := paramObjectID(c, "id")
		if !ok {
			return
		}

		ids, err := f.GetFavourites(c.Request.Context(), userId)
		if err != nil {
			respondError(c, err)
			return
		}
		res := gin.H{"favourites": ids}

		if c.Query("expand") == "true" {
			venues, err := f.ExpandFavourites(c.Request.Context(), userId)
			if err != nil {
				respondError(c, err)
				return
			}
			res["venues"] = venues
		}
		c.JSON(http.StatusOK, res)
	}
}

func UpdateFavourites(f *services.FavouriteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := paramObjectID(c, "id")
		if !ok {
			return
		}

		var reqBody struct {
			Favourites []string `json:"favourites" binding:"required"`
		}
		if err := c.ShouldBindJSON(&reqBody); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("favourites must be a list of venue ids"))
			return
		}

		ids, err := f.ReplaceFavourites(c.Request.Context(), userId, reqBody.Favourites)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"favourites": ids})
	}
}
