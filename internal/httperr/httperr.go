package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type HTTPError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Error: message,
		Code:  code,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func StatusFor(kind Kind) int {
	switch kind {
	case KindMalformedInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes err using the status that matches its kind.
// Unexpected errors never leak their text to the client.
func Respond(c *gin.Context, err error) {
	kind := KindOf(err)
	if kind == KindUnexpected {
		Internal(c, "internal_error", "Internal server error")
		return
	}

	code := "error"
	var be *BusinessError
	if errors.As(err, &be) {
		code = be.Code
	}
	Write(c, StatusFor(kind), code, err.Error())
}
