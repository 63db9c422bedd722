package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/feral-file/consent-ledger/internal/api/shared/errors"
	"github.com/feral-file/consent-ledger/internal/logger"
)

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusBadRequest, apierrors.NewBadRequestError(message, details...))
}

// respondError responds with the status of an executor error
func respondError(c *gin.Context, err error, message string) {
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		apiErr = apierrors.NewInternalError(message)
	}

	status := apiErr.StatusCode()
	if status >= http.StatusInternalServerError {
		logger.ErrorCtx(c.Request.Context(), err,
			zap.String("path", c.Request.URL.Path),
			zap.String("code", string(apiErr.Code)))
	}
	c.JSON(status, apiErr)
}
