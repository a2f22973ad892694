package routes

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/reelhub/reelhub/config"
	"github.com/reelhub/reelhub/controllers"
	"github.com/reelhub/reelhub/linkmeta"
	"github.com/reelhub/reelhub/middleware"
	"github.com/reelhub/reelhub/storage"
	"github.com/reelhub/reelhub/utils"
	"github.com/reelhub/reelhub/wallet"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, resolver *linkmeta.Resolver, walletSvc *wallet.Service, st storage.Storage) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Serve locally stored media when the local storage backend is active
	if cfg.StorageBackend == "local" {
		r.Static("/media", cfg.LocalStoragePath)
	}

	authController := controllers.NewAuthController(db)
	postController := controllers.NewPostController(db, resolver)
	walletController := controllers.NewWalletController(walletSvc)
	uploadController := controllers.NewUploadController(st, cfg)

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware())
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authController.Register)
			auth.POST("/login", authController.Login)
			auth.POST("/logout", middleware.AuthRequired(), authController.Logout)
		}

		api.GET("/reels", postController.ListReels)
		api.GET("/posts/:id", postController.GetPost)
		api.POST("/posts", middleware.AuthRequired(), postController.CreatePost)
		api.POST("/uploads/reel", middleware.AuthRequired(), uploadController.UploadReel)

		walletGroup := api.Group("/wallet", middleware.AuthRequired())
		{
			walletGroup.GET("", walletController.GetWallet)
			walletGroup.POST("/deposit", walletController.Deposit)
			walletGroup.POST("/withdraw", walletController.Withdraw)
		}

		admin := api.Group("/admin", middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.POST("/posts/:id/requeue", postController.RequeuePost)
		}
	}

	return r
}
