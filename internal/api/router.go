package api

import (
	"github.com/gin-gonic/gin"
	"github.com/pigweb/pigweb/internal/api/handler"
	"github.com/pigweb/pigweb/internal/api/middleware"
	"github.com/pigweb/pigweb/internal/config"
	"github.com/pigweb/pigweb/internal/domain"
	"github.com/pigweb/pigweb/internal/service"
)

// SetupRouter builds the gin engine with all routes and middleware wired.
// Parameters:
//   - cfg: server configuration.
//   - auth: token authenticator.
//   - pigs: record service.
//   - bulk: bulk import service.
//   - archive: archive service, nil when archiving is disabled.
// Returns:
//   - *gin.Engine: configured router.
func SetupRouter(cfg *config.Config, auth *middleware.Authenticator, pigs *service.PigService, bulk *service.BulkService, archive *service.ArchiveService) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Server.CORS))

	r.GET("/health", handler.Health)

	pigHandler := handler.NewPigHandler(pigs)
	bulkHandler := handler.NewBulkHandler(bulk, archive)
	authHandler := handler.NewAuthHandler()

	api := r.Group("/api")
	api.Use(auth.Middleware())
	{
		api.GET("/auth", authHandler.Roles)

		pigGroup := api.Group("/pigs")
		{
			pigGroup.POST("/create", middleware.RequireRole(domain.RolePigEditor, domain.RoleBulkEditor), pigHandler.Create)
			pigGroup.GET("/fetch", middleware.RequireRole(domain.RolePigEditor, domain.RoleBulkEditor, domain.RoleBulkAdmin), pigHandler.Fetch)
		}

		bulkGroup := api.Group("/bulk")
		{
			bulkGroup.POST("/create", middleware.RequireRole(domain.RoleBulkEditor, domain.RoleBulkAdmin), bulkHandler.Create)
			bulkGroup.PATCH("/patch", middleware.RequireRole(domain.RoleBulkEditor, domain.RoleBulkAdmin), bulkHandler.Patch)
			bulkGroup.GET("/fetch", middleware.RequireRole(domain.RoleBulkEditor, domain.RoleBulkAdmin), bulkHandler.Fetch)
			bulkGroup.POST("/archive", middleware.RequireRole(domain.RoleBulkAdmin), bulkHandler.Archive)
		}
	}

	return r
}
