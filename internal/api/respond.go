package api

import (
	"errors"
	"net/http"

	"fabrika/internal/doc"
	"fabrika/internal/store"

	"github.com/gin-gonic/gin"
)

type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func ferr(code, field, msg string) FieldError {
	return FieldError{Code: code, Field: field, Message: msg}
}

// writeStoreError переводит ошибки хранилища в HTTP-ответ:
// sentinel'ы → 404, ошибки значений → 400 со списком {code, field, message}.
func writeStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrAppNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
	case errors.Is(err, store.ErrTableNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
	case errors.Is(err, store.ErrRowNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Row not found"})
	default:
		var rowErr *store.RowError
		if errors.As(err, &rowErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"errors": []FieldError{ferr(rowErr.Code, rowErr.Field, rowErr.Message)},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// writePipelineError — ошибки пайплайна генерации одним сообщением:
// отбраковка ответа сервиса — 422, всё остальное — 502.
func writePipelineError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrAppNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		return
	}
	var (
		extErr  *doc.ExtractionError
		parsErr *doc.ParseError
		repErr  *doc.RepairFailure
		valErr  *doc.ValidationError
	)
	if errors.As(err, &extErr) || errors.As(err, &parsErr) ||
		errors.As(err, &repErr) || errors.As(err, &valErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}
