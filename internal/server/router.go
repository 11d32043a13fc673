package server

import (
	"net/http"

	"field-report/internal/cache"
	"field-report/internal/config"
	"field-report/internal/handlers"
	"field-report/internal/middleware"
	"field-report/internal/models"
	"field-report/internal/report"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func NewRouter(cfg *config.Config, db *gorm.DB, statusCache *cache.Store, log *logrus.Logger) *gin.Engine {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	handlers.UseJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 12 * 3600, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("field_report_session", store))

	r.Use(middleware.InjectUser(db))

	scopes := report.NewContextResolver(db)
	entryStore := report.NewStore(db, statusCache, log)
	agg := report.NewAggregator(db, statusCache, log)

	authH := handlers.NewAuthHandler(db, log)
	entryH := handlers.NewEntryHandler(scopes, entryStore, log)
	statusH := handlers.NewStatusHandler(scopes, agg, log)
	projectH := handlers.NewProjectHandler(db, log)
	catalogH := handlers.NewCatalogHandler(db, scopes, log)
	auditH := handlers.NewAuditHandler(db)

	// AUTH
	r.POST("/login", authH.Login)
	r.POST("/logout", authH.Logout)

	api := r.Group("/api")
	api.Use(middleware.RequireAuth())
	RegisterAPI(api, APIHandlers{
		Entries:  entryH,
		Status:   statusH,
		Projects: projectH,
		Catalog:  catalogH,
		Audit:    auditH,
		Auth:     authH,
	})

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}

type APIHandlers struct {
	Entries  *handlers.EntryHandler
	Status   *handlers.StatusHandler
	Projects *handlers.ProjectHandler
	Catalog  *handlers.CatalogHandler
	Audit    *handlers.AuditHandler
	Auth     *handlers.AuthHandler
}

// RegisterAPI mounts the JSON API with its role gates. Callers put
// authentication in front of api.
func RegisterAPI(api *gin.RouterGroup, h APIHandlers) {
	writers := middleware.RequireRole(models.RoleAdmin, models.RoleSuperintendent, models.RoleForeman)
	approvers := middleware.RequireRole(models.RoleAdmin, models.RoleSuperintendent)
	admins := middleware.RequireRole(models.RoleAdmin)

	// ENTRIES
	api.GET("/entries", h.Entries.List)
	api.POST("/entries/confirm", approvers, h.Entries.Confirm)
	api.GET("/entries/:category", h.Entries.List)
	api.POST("/entries/:category", writers, h.Entries.Stage)
	api.POST("/entries/:category/batch", writers, h.Entries.StageBatch)
	api.PUT("/entries/:category/:id", writers, h.Entries.Update)
	api.DELETE("/entries/:category/:id", writers, h.Entries.Delete)
	api.POST("/entries/:category/:id/reject", approvers, h.Entries.Reject)

	// STATUS
	api.GET("/status/day", h.Status.Day)
	api.GET("/status/calendar", h.Status.Calendar)

	// PROJECTS
	api.GET("/projects", h.Projects.List)
	api.POST("/projects", admins, h.Projects.Create)
	api.POST("/projects/:id/status", approvers, h.Projects.ChangeStatus)

	// CATALOG
	api.GET("/catalog/:kind", h.Catalog.List)
	api.GET("/references", h.Catalog.References)

	// ADMIN
	api.GET("/audit", approvers, h.Audit.List)
	api.POST("/users", admins, h.Auth.CreateUser)
}
