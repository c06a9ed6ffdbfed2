package handler

import (
	"net/http"

	"fieldops/pkg/apperr"
	"fieldops/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError maps a service error to the response envelope. Typed domain
// errors carry their stable kind; anything else is reported as a bare 500
// without leaking internals.
func writeError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Internal server error"))
		return
	}
	status := apperr.HTTPStatus(err)
	c.JSON(status, response.Rejection(status, string(kind), err.Error()))
}
