package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loadwire/loadwire/fetch"
	"github.com/loadwire/loadwire/models"
)

// OpenWebUI returns a handler for POST /, the OpenWebUI-compatible
// endpoint. It loads every URL as markdown and responds with a flat
// array of documents. Failed URLs are dropped from the array rather than
// failing the call, matching what OpenWebUI retrieval expects.
func OpenWebUI(f *fetch.Fetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body models.OpenWebUIRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		batch, err := f.FetchBatch(c.Request.Context(), body.URLs, func(u string) *models.ExtractionRequest {
			req := buildRequest(c, u, models.RequestOptions{})
			req.Format = models.FormatMarkdown
			return req
		})
		if err != nil {
			respondError(c, err)
			return
		}

		docs := make([]models.OpenWebUIDocument, 0, len(batch.Results))
		for _, r := range batch.Results {
			if r.Response == nil {
				continue
			}
			docs = append(docs, models.OpenWebUIDocument{
				PageContent: r.Response.Content,
				Metadata: models.OpenWebUIMetadata{
					Source: r.URL,
					Title:  r.Response.Title,
				},
			})
		}
		c.JSON(http.StatusOK, docs)
	}
}
