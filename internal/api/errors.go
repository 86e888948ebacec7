package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/alchemorsel-mealgen/backend/internal/middleware"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/service"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/types"
)

// Error codes returned in ErrorResponse.Error
const (
	codeInvalidRequest     = "invalid_request"
	codeInvalidIngredients = "invalid_ingredients"
	codeGenerationFailed   = "generation_failed"
	codeGenerationTimeout  = "generation_timeout"
	codeRequestCanceled    = "request_canceled"
	codeNotFound           = "not_found"
	codeUnavailable        = "unavailable"
	codeInternal           = "internal_error"
)

// generationStatus maps a pipeline error to a status code and response body.
// Upstream error text is never part of the body.
func generationStatus(err error) (int, types.ErrorResponse) {
	var invalid *service.InvalidIngredientsError
	if errors.As(err, &invalid) {
		return http.StatusBadRequest, types.ErrorResponse{Error: codeInvalidIngredients, Message: invalid.Error()}
	}

	var genErr *service.AIGenerationError
	if errors.As(err, &genErr) {
		resp := types.ErrorResponse{Message: genErr.Message(), Stage: string(genErr.Stage)}
		switch {
		case genErr.Timeout():
			resp.Error = codeGenerationTimeout
			return http.StatusGatewayTimeout, resp
		case genErr.Canceled():
			resp.Error = codeRequestCanceled
			return http.StatusRequestTimeout, resp
		}
		resp.Error = codeGenerationFailed
		return http.StatusInternalServerError, resp
	}

	var relErr *service.RelocationError
	if errors.As(err, &relErr) {
		return http.StatusInternalServerError, types.ErrorResponse{
			Error:   codeGenerationFailed,
			Message: "could not store the generated image",
			Stage:   string(service.StageRelocate),
		}
	}

	return http.StatusInternalServerError, types.ErrorResponse{Error: codeInternal, Message: "meal generation failed"}
}

func (h *MealHandler) abortWithGenerationError(c *gin.Context, err error) {
	status, resp := generationStatus(err)
	fields := []zap.Field{
		zap.String("request_id", middleware.RequestID(c)),
		zap.Int("status", status),
		zap.String("stage", resp.Stage),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("meal generation failed", fields...)
	} else {
		h.logger.Info("meal generation rejected", fields...)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, types.ErrorResponse{Error: code, Message: message})
}
