package app

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/olympiad-admin-api/internal/handler"
	"github.com/noah-isme/olympiad-admin-api/internal/middleware"
	"github.com/noah-isme/olympiad-admin-api/internal/models"
	"github.com/noah-isme/olympiad-admin-api/pkg/config"
	"github.com/noah-isme/olympiad-admin-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/olympiad-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/olympiad-admin-api/pkg/middleware/requestid"
)

// Router builds the HTTP engine with every route mounted.
func (a *App) Router() *gin.Engine {
	if a.Config.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(a.Logger))
	r.Use(corsmiddleware.New(a.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.Metrics))

	metricsHandler := handler.NewMetricsHandler(a.Metrics, a.checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if a.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	provisioningHandler := handler.NewProvisioningHandler(
		a.Provisioning,
		a.Limiter,
		a.Uploads,
		handler.ProvisioningConfig{
			MaxUploadBytes:   a.Config.Provisioning.MaxUploadBytes,
			DownloadBasePath: a.Config.Provisioning.DownloadBasePath,
		},
		a.Logger,
	)
	exportHandler := handler.NewExportHandler(a.Export)

	api := r.Group(a.Config.APIPrefix)
	if a.Config.Provisioning.RequireAuth {
		api.Use(middleware.JWT(a.Tokens), middleware.RequireRoles(models.ProvisioningRoles...))
	} else {
		a.Logger.Warn("provisioning routes are not authenticated")
		api.Use(middleware.OptionalJWT(a.Tokens))
	}

	api.POST("/register-students", provisioningHandler.RegisterStudents)
	api.POST("/register-sales", provisioningHandler.RegisterSales)
	api.GET("/download-logins/list", provisioningHandler.ListLogins)
	api.GET("/download-logins/:filename", provisioningHandler.DownloadLogins)
	api.GET("/generate-csv",
		middleware.Audit(a.Stores.Audit, a.Logger, models.AuditActionUserExport, models.AuditResourceAccounts),
		exportHandler.GenerateCSV,
	)
	api.GET("/student-filters", exportHandler.StudentFilters)

	return r
}
