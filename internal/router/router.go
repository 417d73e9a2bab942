package router

import (
	"net/http"

	"time-ledger/internal/config"
	"time-ledger/internal/handler"
	"time-ledger/internal/middleware"
	"time-ledger/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin engine and the JSON API.
func SetupRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		util.Success(c, util.Response{"status": "ok"})
	})
	r.NoRoute(func(c *gin.Context) {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "not found")
	})

	// ====== API ======
	api := r.Group("/api")

	loc := cfg.Location()
	jwtSecret := cfg.JWT.Secret
	encKey := cfg.Security.EncryptionKey

	// no auth required
	authHandler := handler.NewAuthHandler(db, jwtSecret, cfg.JWT.Issuer, cfg.JWT.ExpireHours, cfg.Security.BcryptCost)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(
		middleware.AuthMiddleware(jwtSecret, db),
		middleware.AuditMiddleware(db, encKey),
	)

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/me", handler.GetMe)
	protected.POST("/profile", handler.UpdateProfile(db))
	protected.POST("/profile/password", handler.ChangePassword(db, cfg.Security.BcryptCost))
	protected.POST("/profile/delete", handler.DeleteAccount(db))

	clientHandler := handler.NewClientHandler(db)
	protected.GET("/clients", clientHandler.ListClients)
	protected.POST("/clients", clientHandler.CreateClient)
	protected.DELETE("/clients/:id", clientHandler.DeleteClient)

	entryHandler := handler.NewEntryHandler(db, encKey, loc)
	protected.GET("/entries", entryHandler.ListEntries)
	protected.POST("/entries", entryHandler.CreateEntry)
	protected.POST("/entries/bulk", entryHandler.CreateEntries)
	protected.PUT("/entries/:id", entryHandler.UpdateEntry)
	protected.DELETE("/entries/:id", entryHandler.DeleteEntry)
	protected.GET("/timer", entryHandler.GetTimer)
	protected.GET("/analytics", entryHandler.GetAnalytics)

	backupHandler := handler.NewBackupHandler(db, encKey, cfg.Backup.Dir, loc)
	protected.POST("/backups", backupHandler.CreateBackup)
	protected.GET("/backups", backupHandler.ListBackups)
	protected.GET("/backups/:id/download", backupHandler.DownloadBackup)
	protected.POST("/backups/:id/restore", backupHandler.RestoreBackup)
	protected.DELETE("/backups/:id", backupHandler.DeleteBackup)

	logHandler := handler.NewLogHandler(db, encKey)
	protected.GET("/logs", logHandler.ListLogs)
	protected.GET("/history", logHandler.ListEntryHistory)

	importExportHandler := handler.NewImportExportHandler(db, encKey, loc)
	protected.GET("/export/csv", importExportHandler.ExportCSV)
	protected.GET("/export/xlsx", importExportHandler.ExportXLSX)

	return r
}
