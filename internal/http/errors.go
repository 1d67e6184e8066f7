package http

import (
	"github.com/gin-gonic/gin"

	"blog-api/internal/apperr"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

// writeError aborts the request with the status and body derived from err's
// code. Internal failures are logged and replaced by a generic message.
func (h *Handler) writeError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	code := apperr.Code(err)
	if kind == apperr.KindInternal {
		apperr.LogError(h.logger.WithField("route", c.FullPath()), "request failed", err)
		if code == "" {
			code = apperr.CodeInternal
		}
	}

	c.AbortWithStatusJSON(apperr.HTTPStatus(kind), errorResponse{Error: apiError{
		Code:    code,
		Message: apperr.PublicMessage(err),
		Field:   apperr.Field(err),
	}})
}
