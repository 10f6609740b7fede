package response

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Err struct {
	statusCode int
	err        error

	ErrorMsg string `json:"error"`
}

func (e *Err) Error() string {
	return e.ErrorMsg
}

func newErr(statusCode int, err error, msg string) *Err {
	return &Err{
		statusCode: statusCode,
		err:        err,
		ErrorMsg:   msg,
	}
}

func ErrBadRequest(err error) *Err {
	return newErr(http.StatusBadRequest, err, err.Error())
}

func ErrWrongCredentials(err error) *Err {
	return newErr(http.StatusUnauthorized, err, "wrong credentials")
}

func ErrPermissionDenied(err error) *Err {
	return newErr(http.StatusForbidden, err, "permission denied")
}

func ErrNotFound(resource, key string, value any) *Err {
	err := fmt.Errorf("%v not found by %v (%v)", resource, key, value)

	return newErr(http.StatusNotFound, err, err.Error())
}

// ErrConflict covers recoverable business conflicts, such as requested ticket
// numbers that were claimed by someone else first.
func ErrConflict(err error) *Err {
	return newErr(http.StatusConflict, err, err.Error())
}

func ErrInternalServerError(err error) *Err {
	return newErr(http.StatusInternalServerError, err, "internal server error")
}

// ErrServiceUnavailable marks transient storage faults, telling the caller to
// retry later rather than change the request.
func ErrServiceUnavailable(err error) *Err {
	return newErr(http.StatusServiceUnavailable, err, "service temporarily unavailable")
}

func RenderErr(ctx *gin.Context, e *Err) {
	if e.statusCode >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("request_id", requestid.Get(ctx)),
			zap.String("path", ctx.FullPath()),
			zap.Error(e.err),
		)
	}

	ctx.AbortWithStatusJSON(e.statusCode, e)
}
