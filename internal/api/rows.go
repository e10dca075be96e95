package api

import (
	"net/http"
	"net/url"
	"strconv"

	"fabrika/internal/store"

	"github.com/gin-gonic/gin"
)

// POST /api/apps/:app/data/:table
func CreateRowHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var obj map[string]any
		if err := c.ShouldBindJSON(&obj); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		id, err := s.Store.InsertRow(c.Request.Context(), c.Param("app"), c.Param("table"), obj)
		if err != nil {
			writeStoreError(c, err)
			return
		}
		row, err := s.Store.GetRow(c.Request.Context(), c.Param("app"), c.Param("table"), id)
		if err != nil {
			writeStoreError(c, err)
			return
		}
		c.JSON(http.StatusCreated, row)
	}
}

// GET /api/apps/:app/data/:table
func ListRowsHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := parseListParams(c.Request.URL.Query())
		rows, err := s.Store.ListRows(c.Request.Context(), c.Param("app"), c.Param("table"), p)
		if err != nil {
			writeStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": rows, "total": len(rows)})
	}
}

// GET /api/apps/:app/data/:table/:id
func GetRowHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := rowID(c)
		if !ok {
			return
		}
		row, err := s.Store.GetRow(c.Request.Context(), c.Param("app"), c.Param("table"), id)
		if err != nil {
			writeStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, row)
	}
}

// PUT /api/apps/:app/data/:table/:id — частичное обновление переданных колонок
func UpdateRowHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := rowID(c)
		if !ok {
			return
		}
		var patch map[string]any
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		row, err := s.Store.UpdateRow(c.Request.Context(), c.Param("app"), c.Param("table"), id, patch)
		if err != nil {
			writeStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, row)
	}
}

// DELETE /api/apps/:app/data/:table/:id
func DeleteRowHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := rowID(c)
		if !ok {
			return
		}
		if err := s.Store.DeleteRow(c.Request.Context(), c.Param("app"), c.Param("table"), id); err != nil {
			writeStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": id})
	}
}

func rowID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": []FieldError{ferr(store.ErrCodeTypeMismatch, "id", "Row id must be an integer")},
		})
		return 0, false
	}
	return id, true
}

// parseListParams: limit/offset — пагинация, остальные query-параметры —
// фильтры-равенства по колонкам.
func parseListParams(q url.Values) store.ListParams {
	p := store.ListParams{Filters: make(map[string]string)}
	for key, vals := range q {
		if len(vals) == 0 {
			continue
		}
		switch key {
		case "limit":
			p.Limit, _ = strconv.Atoi(vals[0])
		case "offset":
			p.Offset, _ = strconv.Atoi(vals[0])
		default:
			p.Filters[key] = vals[0]
		}
	}
	return p
}
