package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loadwire/loadwire/fetch"
	"github.com/loadwire/loadwire/models"
)

// Batch returns a handler for POST /load/batch.
//
// Every URL shares the same options. Items succeed or fail on their own;
// the endpoint returns 200 as long as the batch itself was acceptable.
func Batch(f *fetch.Fetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body models.BatchLoadRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		resp, err := f.FetchBatch(c.Request.Context(), body.URLs, func(u string) *models.ExtractionRequest {
			return buildRequest(c, u, body.Options)
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
