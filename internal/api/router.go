package api

import (
	"github.com/gin-gonic/gin"

	"fabrika/internal/gen"
	"fabrika/internal/logger"
	"fabrika/internal/store"
)

type Server struct {
	Store store.Store
	Orch  *gen.Orchestrator
	Log   *logger.Logger
}

func NewServer(st store.Store, orch *gen.Orchestrator, log *logger.Logger) *Server {
	return &Server{Store: st, Orch: orch, Log: log}
}

func Router(s *Server) *gin.Engine {
	r := gin.Default()

	apiGroup := r.Group("/api")
	{
		// приложения и пайплайны генерации
		apiGroup.POST("/apps", CreateAppHandler(s))
		apiGroup.GET("/apps", ListAppsHandler(s))
		apiGroup.GET("/apps/:app", GetAppHandler(s))
		apiGroup.POST("/apps/:app/edits", EditAppHandler(s))
		apiGroup.GET("/apps/:app/markup", MarkupHandler(s))
		apiGroup.GET("/apps/:app/schema", SchemaHandler(s))

		// данные приложений
		apiGroup.POST("/apps/:app/data/:table", CreateRowHandler(s))
		apiGroup.GET("/apps/:app/data/:table", ListRowsHandler(s))
		apiGroup.GET("/apps/:app/data/:table/:id", GetRowHandler(s))
		apiGroup.PUT("/apps/:app/data/:table/:id", UpdateRowHandler(s))
		apiGroup.DELETE("/apps/:app/data/:table/:id", DeleteRowHandler(s))
	}

	return r
}

func RunServer(addr string, s *Server) error {
	return Router(s).Run(addr)
}
