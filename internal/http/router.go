package http

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/yodhcn/kikoeru-express/internal/logging"
)

// RouterConfig holds all dependencies for the HTTP router. Optional
// collaborators left nil disable their routes.
type RouterConfig struct {
	Version string

	IdentityHeader string
	DefaultUser    string
	Users          UserEnsurer
	ReadOnly       bool

	Lister    WorkLister
	Works     WorkStore
	Tags      TagStore
	Mylists   CollectionStore
	Playlists CollectionStore
	Recorder  Recorder

	Ingester Ingester
	Audit    AuditReader
	Health   HealthStore

	TaskQueue          TaskQueue
	AuditRetentionDays int

	Logger *log.Logger
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(logging.With(cfg.Logger, "component", "http")))
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())

	health := NewHealthController(cfg.Health, cfg.Version)
	router.GET("/api/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	api := router.Group("/api")
	if cfg.ReadOnly {
		api.Use(ReadOnlyMiddleware())
	}
	api.Use(IdentityMiddleware(cfg.IdentityHeader, cfg.DefaultUser, cfg.Users))

	works := NewWorksController(cfg.Lister, cfg.Works, cfg.Recorder)
	api.GET("/works", works.ListWorks)
	api.GET("/search", works.Search)
	api.GET("/works/:field/:id", works.ListBySource)
	api.GET("/labels/:field", works.Labels)
	api.GET("/work/:id", works.GetWork)
	api.DELETE("/work/:id", works.DeleteWork)
	api.PUT("/work/:id/metrics", works.UpdateMetrics)

	if cfg.Tags != nil {
		tags := NewTagsController(cfg.Tags)
		api.GET("/work/:id/tags", tags.GetWorkTags)
		api.DELETE("/work/:id/tags", tags.ResetWork)
		api.POST("/work/:id/tags/dlsite", tags.AttachGlobalTag)
		api.DELETE("/work/:id/tags/dlsite/:tag_id", tags.DetachGlobalTag)
		api.POST("/work/:id/tags/user", tags.AttachUserTag)
		api.DELETE("/work/:id/tags/user/:tag_id", tags.DetachUserTag)
		api.GET("/user-tags", tags.ListUserTags)
	}

	registerCollections(api.Group("/mylists"), NewCollectionsController("mylist", cfg.Mylists, cfg.Works, cfg.Recorder))
	registerCollections(api.Group("/playlists"), NewCollectionsController("playlist", cfg.Playlists, cfg.Works, cfg.Recorder))

	if cfg.Ingester != nil {
		ingest := NewIngestController(cfg.Ingester)
		api.POST("/ingest", ingest.Ingest)
	}

	if cfg.Audit != nil {
		audit := NewAuditController(cfg.Audit)
		api.GET("/audit", audit.GetAuditEvents)
	}

	if cfg.TaskQueue != nil {
		tasks := NewTasksController(cfg.TaskQueue, cfg.AuditRetentionDays)
		api.GET("/tasks/types", tasks.ListTaskTypes)
		api.GET("/tasks/:id", tasks.GetTaskStatus)
		api.POST("/tasks/:type/run", tasks.RunTask)
	}

	return router
}

func registerCollections(g *gin.RouterGroup, cc *CollectionsController) {
	if cc.store == nil {
		return
	}
	g.GET("", cc.List)
	g.POST("", cc.Create)
	g.GET("/:id", cc.Get)
	g.PUT("/:id", cc.Rename)
	g.DELETE("/:id", cc.Delete)
	g.POST("/:id/works", cc.AddWork)
	g.DELETE("/:id/works/:work_id", cc.RemoveWork)
	g.PUT("/:id/order", cc.Reorder)
}

// requestLogger logs one line per request.
func requestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"user", currentUser(c),
			"duration", time.Since(start).Round(time.Microsecond))
	}
}
