package api

import (
	"net/http"
	"strings"

	"fabrika/internal/gen"
	"fabrika/internal/store"

	"github.com/gin-gonic/gin"
)

// POST /api/apps
func CreateAppHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		if strings.TrimSpace(req.Description) == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"errors": []FieldError{ferr(store.ErrCodeRequired, "description", "Field 'description' is required")},
			})
			return
		}

		app, err := s.Orch.Create(c.Request.Context(), gen.CreateRequest{
			Title:       req.Title,
			Description: req.Description,
		})
		if err != nil {
			writePipelineError(c, err)
			return
		}
		c.JSON(http.StatusCreated, app)
	}
}

// POST /api/apps/:app/edits
func EditAppHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Change string `json:"change"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		if strings.TrimSpace(req.Change) == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"errors": []FieldError{ferr(store.ErrCodeRequired, "change", "Field 'change' is required")},
			})
			return
		}

		res, err := s.Orch.Edit(c.Request.Context(), c.Param("app"), req.Change)
		if err != nil {
			writePipelineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"application":   res.App,
			"used_fallback": res.UsedFallback,
			"seed_failures": res.SeedFailures,
		})
	}
}

// GET /api/apps
func ListAppsHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		apps, err := s.Store.ListApplications(c.Request.Context())
		if err != nil {
			writeStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": apps, "total": len(apps)})
	}
}

// GET /api/apps/:app
func GetAppHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		app, err := s.Store.GetApplication(c.Request.Context(), c.Param("app"))
		if err != nil {
			writeStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, app)
	}
}

// GET /api/apps/:app/markup — готовая разметка как text/html
func MarkupHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		app, err := s.Store.GetApplication(c.Request.Context(), c.Param("app"))
		if err != nil {
			writeStoreError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(app.Markup))
	}
}

// GET /api/apps/:app/schema — дамп реестра таблиц приложения
func SchemaHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		schema, err := s.Store.GetSchema(c.Request.Context(), c.Param("app"))
		if err != nil {
			writeStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tables": schema})
	}
}
