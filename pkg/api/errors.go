package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jakechorley/locum-dental/pkg/core/apperr"
)

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindValidationRejected:
		return http.StatusUnprocessableEntity
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// abortWithError writes err as {"error", "kind"}. Upstream details stay in the logs.
func abortWithError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	msg := apperr.Message(err)
	if kind == apperr.KindUpstreamFailure {
		_ = c.Error(err)
		msg = "a required service is unavailable, please try again"
	}
	c.AbortWithStatusJSON(statusFor(kind), gin.H{"error": msg, "kind": kind})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
