package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rifadigital/rifa-api/internal/api/handler/v1/response"
	"github.com/rifadigital/rifa-api/internal/api/middleware"
)

// HandleHealthcheck godoc
// @Summary      Healthcheck
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       / [get]
func HandleHealthcheck(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func getUserIDFromContext(ctx *gin.Context) (uint, *response.Err) {
	val, exists := ctx.Get(middleware.ContextKeyUserID)
	if !exists {
		return 0, response.ErrPermissionDenied(errors.New("missing user id in context"))
	}

	userID, ok := val.(uint)
	if !ok || userID == 0 {
		return 0, response.ErrPermissionDenied(errors.New("invalid user id in context"))
	}

	return userID, nil
}
