package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loadwire/loadwire/fetch"
	"github.com/loadwire/loadwire/models"
)

// Load returns a handler for POST /load.
//
// The URL comes from the JSON body; extraction options come from the x-*
// headers with the body's options block as fallback.
func Load(f *fetch.Fetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body models.LoadRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		req := buildRequest(c, body.URL, body.Options)
		resp, err := f.Fetch(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
